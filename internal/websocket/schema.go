package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionSync   Action = "sync"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// Request is the single client message shape; fields beyond Action are
// meaningful only for some actions.
type Request struct {
	Action Action `json:"action"`

	// answer: one question answered.
	QID    string `json:"q_id,omitempty"`
	Option *int   `json:"option,omitempty"`

	// sync: full answer map overwrite (question id → option index).
	Answers map[string]int `json:"answers,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventTick      Event = "tick"
	EventSaved     Event = "saved"
	EventSubmitted Event = "submitted"
	EventExpired   Event = "expired"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse is sent once after connect: the resume view of the attempt.
type StateResponse struct {
	Event            Event          `json:"event"`
	SubmissionID     string         `json:"submission_id"`
	Status           string         `json:"status"`
	Answers          map[string]int `json:"answers"`
	RemainingSeconds float64        `json:"remaining_seconds"`
}

// TickResponse carries the server-side countdown.
type TickResponse struct {
	Event            Event   `json:"event"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

// SavedResponse acknowledges an answer or sync action.
type SavedResponse struct {
	Event Event `json:"event"`
}

// SubmittedResponse ends the attempt. Expired carries the same shape with
// EventExpired when the server clock ran out before a manual submit.
type SubmittedResponse struct {
	Event Event `json:"event"`
	Late  bool  `json:"late"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
