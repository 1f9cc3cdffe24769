package app

import (
	"strings"
	"sync"
	"time"

	"career-assessment-service/internal/domain"
)

// Attempt records one user's answers while they move through an assessment.
type Attempt struct {
	userID     string
	assessment domain.Assessment
	startedAt  time.Time

	mu      sync.Mutex
	current int
	answers domain.AnswerRecord
}

// NewAttempt starts an attempt positioned at the first question.
func NewAttempt(userID string, assessment domain.Assessment, startedAt time.Time) *Attempt {
	return &Attempt{
		userID:     userID,
		assessment: assessment,
		startedAt:  startedAt,
		answers:    make(domain.AnswerRecord),
	}
}

func (a *Attempt) UserID() string { return a.userID }

func (a *Attempt) Assessment() domain.Assessment { return a.assessment }

// Answer selects option for questionID, replacing any earlier choice.
// An empty questionID targets the current question.
func (a *Attempt) Answer(questionID string, option int) (domain.Progress, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	q, err := a.questionLocked(questionID)
	if err != nil {
		return domain.Progress{}, err
	}
	if option < 0 || option >= len(q.Options) {
		return domain.Progress{}, domain.ErrOptionNotFound
	}
	a.answers[q.ID] = option
	return a.progressLocked(), nil
}

// AnswerText selects the option whose text matches, ignoring case.
func (a *Attempt) AnswerText(questionID, text string) (domain.Progress, error) {
	a.mu.Lock()
	q, err := a.questionLocked(questionID)
	a.mu.Unlock()
	if err != nil {
		return domain.Progress{}, err
	}
	for i, opt := range q.Options {
		if strings.EqualFold(strings.TrimSpace(opt.Text), strings.TrimSpace(text)) {
			return a.Answer(q.ID, i)
		}
	}
	return domain.Progress{}, domain.ErrOptionNotFound
}

// Next advances to the following question; the current one must be answered.
// On the last question it stays put.
func (a *Attempt) Next() (domain.Progress, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.assessment.Questions) == 0 {
		return a.progressLocked(), nil
	}
	if _, ok := a.answers[a.assessment.Questions[a.current].ID]; !ok {
		return a.progressLocked(), domain.ErrAnswerRequired
	}
	if a.current < len(a.assessment.Questions)-1 {
		a.current++
	}
	return a.progressLocked(), nil
}

// Previous steps back one question, stopping at the first.
func (a *Attempt) Previous() domain.Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current > 0 {
		a.current--
	}
	return a.progressLocked()
}

// Restart discards every answer and returns to the first question.
func (a *Attempt) Restart() domain.Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = 0
	a.answers = make(domain.AnswerRecord)
	return a.progressLocked()
}

func (a *Attempt) Progress() domain.Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progressLocked()
}

// Answers returns a copy of the answer record.
func (a *Attempt) Answers() domain.AnswerRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.answers.Clone()
}

func (a *Attempt) questionLocked(questionID string) (domain.Question, error) {
	if questionID == "" {
		if len(a.assessment.Questions) == 0 {
			return domain.Question{}, domain.ErrQuestionNotFound
		}
		return a.assessment.Questions[a.current], nil
	}
	q, ok := a.assessment.Question(questionID)
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (a *Attempt) progressLocked() domain.Progress {
	total := len(a.assessment.Questions)
	p := domain.Progress{
		AssessmentID: a.assessment.ID,
		Current:      a.current,
		Total:        total,
		Answered:     len(a.answers),
		StartedAt:    a.startedAt,
	}
	if total == 0 {
		return p
	}
	q := a.assessment.Questions[a.current]
	_, p.CurrentAnswered = a.answers[q.ID]
	p.Percent = float64(a.current+1) / float64(total) * 100
	p.Question = &q
	return p
}
