package config

// WorkerKey holds the Redis list names the background workers consume.
// Producers and consumers both read from here so the names cannot drift.
var WorkerKey = struct {
	PersistAnswersQueue string
	PersistScoresQueue  string
}{
	PersistAnswersQueue: "persist_answers_queue",
	PersistScoresQueue:  "persist_scores_queue",
}
