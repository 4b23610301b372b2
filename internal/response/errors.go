package response

// ErrCode is a machine-readable error code. Clients branch on the code; the
// message from the catalog below is only a default for display.
type ErrCode string

// Authentication and authorization.
const (
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly  ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly    ErrCode = "ADMIN_ACCESS_ONLY"
)

// Request shape and record lookup.
const (
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrNotFound       ErrCode = "NOT_FOUND"
	ErrConflict       ErrCode = "CONFLICT"
)

// Exam and quiz lifecycle.
const (
	ErrExamNotLive       ErrCode = "EXAM_NOT_LIVE"
	ErrNotAQuiz          ErrCode = "NOT_AN_ONLINE_QUIZ"
	ErrAlreadySubmitted  ErrCode = "ALREADY_SUBMITTED"
	ErrInvalidTransition ErrCode = "INVALID_STATUS_TRANSITION"
	ErrInvalidQuestion   ErrCode = "INVALID_QUESTION"
)

// Everything else.
const (
	ErrFileRequired      ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile   ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge      ErrCode = "FILE_TOO_LARGE"
	ErrInsightsDisabled  ErrCode = "INSIGHTS_DISABLED"
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrInternal          ErrCode = "INTERNAL_ERROR"
)

var messages = map[ErrCode]string{
	ErrInvalidCredentials: "Invalid institute code, user or password.",
	ErrSessionInvalidated: "Your session has ended. Please sign in again.",
	ErrTokenRequired:      "An authentication token is required.",
	ErrTokenInvalid:       "The authentication token is invalid or expired.",
	ErrForbidden:          "You do not have permission to access this resource.",
	ErrStudentAccessOnly:  "This resource is restricted to students and parents.",
	ErrAdminAccessOnly:    "This resource is restricted to institution administrators.",

	ErrValidation:     "Validation failed. Please check your input.",
	ErrInvalidID:      "The identifier format is invalid.",
	ErrInvalidPayload: "The request payload is invalid.",
	ErrNotFound:       "The requested record was not found.",
	ErrConflict:       "A record with the same identity already exists.",

	ErrExamNotLive:       "This exam is not live right now.",
	ErrNotAQuiz:          "This exam is not an online quiz.",
	ErrAlreadySubmitted:  "This attempt has already been submitted.",
	ErrInvalidTransition: "Exam status can only move forward: SCHEDULED, LIVE, COMPLETED.",
	ErrInvalidQuestion:   "A question is malformed: at least two options and an in-range correct option are required.",

	ErrFileRequired:      "A file upload is required.",
	ErrUnsupportedFile:   "The file type is not supported.",
	ErrFileTooLarge:      "The file exceeds the size limit.",
	ErrInsightsDisabled:  "AI insights are not enabled on this server.",
	ErrRateLimitExceeded: "Too many requests. Please try again later.",
	ErrInternal:          "An internal server error occurred.",
}

// GetMessage returns the default display message for a code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
