package domain

import "errors"

var (
	// ErrAssessmentNotFound indicates the assessment type is not in the catalog.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option index or text is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAttemptNotFound is returned when a user acts on an attempt they never started.
	ErrAttemptNotFound = errors.New("assessment attempt not found")
	// ErrAnswerRequired is returned when moving past an unanswered question.
	ErrAnswerRequired = errors.New("current question must be answered first")
	// ErrNoAnswers is returned when finishing an attempt without any answers.
	ErrNoAnswers = errors.New("no answers recorded")
	// ErrSnapshotNotFound indicates no score snapshot is stored for the assessment.
	ErrSnapshotNotFound = errors.New("score snapshot not found")
	// ErrSnapshotCorrupt indicates a stored snapshot could not be decoded.
	ErrSnapshotCorrupt = errors.New("score snapshot corrupt")
	// ErrEmptyConversation is returned when a chat has no messages.
	ErrEmptyConversation = errors.New("conversation is empty")
)
