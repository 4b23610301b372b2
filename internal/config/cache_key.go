package config

import "fmt"

// cacheKeys centralizes every Redis key and channel format so a format
// string never has to be duplicated at a call site. Access through the
// CacheKey singleton, e.g. config.CacheKey.QuizPayloadKey(id).
type cacheKeys struct{}

// CacheKey builds Redis key and channel names.
var CacheKey cacheKeys

// StudentSessionKey names the string holding the JTI of a student's single
// active login.
func (cacheKeys) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// StudentAnswersKey names the hash holding a student's live quiz answers.
func (cacheKeys) StudentAnswersKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:answers", studentID, examID)
}

// QuizPayloadKey names the cached student-facing paper for a quiz.
func (cacheKeys) QuizPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// QuizAnswerKey names the hash holding a quiz's answer key.
func (cacheKeys) QuizAnswerKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

// ExamMonitorChannel names the Pub/Sub channel carrying live monitor events
// for one exam.
func (cacheKeys) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}
