package domain

import "time"

// AnonymousUserID is attached to results when no authenticated user is known.
const AnonymousUserID = "default-user"

// ScoringMode selects how answers are folded into category scores.
type ScoringMode string

const (
	// ModeAdditive sums the selected option weights per category.
	ModeAdditive ScoringMode = "additive"
	// ModeNormalized averages the selected option position (0-100) per category.
	ModeNormalized ScoringMode = "normalized"
)

// Valid reports whether m is a known scoring mode.
func (m ScoringMode) Valid() bool {
	return m == ModeAdditive || m == ModeNormalized
}

// Option represents a possible answer for a question and its score weight.
type Option struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Question models a categorized multiple-choice question.
type Question struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Category string   `json:"category"`
	Options  []Option `json:"options"`
}

// Assessment is a named questionnaire, e.g. "interest" or "aptitude".
type Assessment struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	DurationMinutes int         `json:"durationMinutes"`
	Mode            ScoringMode `json:"mode"`
	Questions       []Question  `json:"questions"`
}

// Question returns the question with the given id.
func (a Assessment) Question(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Info strips questions for listing endpoints.
func (a Assessment) Info() AssessmentInfo {
	return AssessmentInfo{
		ID:              a.ID,
		Title:           a.Title,
		Description:     a.Description,
		DurationMinutes: a.DurationMinutes,
		Mode:            a.Mode,
		QuestionCount:   len(a.Questions),
	}
}

// AssessmentInfo is the catalog listing view of an assessment.
type AssessmentInfo struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	DurationMinutes int         `json:"durationMinutes"`
	Mode            ScoringMode `json:"mode"`
	QuestionCount   int         `json:"questionCount"`
}

// AnswerRecord maps question ids to the selected option index.
type AnswerRecord map[string]int

// Clone returns an independent copy of the record.
func (r AnswerRecord) Clone() AnswerRecord {
	out := make(AnswerRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AssessmentResult is created once per completed assessment run and never mutated.
type AssessmentResult struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	AssessmentID string         `json:"assessmentId"`
	Mode         ScoringMode    `json:"mode"`
	Answers      AnswerRecord   `json:"answers"`
	Scores       CategoryScores `json:"scores"`
	Total        float64        `json:"total"`
	CompletedAt  time.Time      `json:"completedAt"`
}

// TimelinePoint is the mean category score of one completed result.
type TimelinePoint struct {
	AssessmentID string    `json:"assessmentId"`
	CompletedAt  time.Time `json:"completedAt"`
	Average      float64   `json:"average"`
}

// Summary is the aggregate view over a user's completed results.
type Summary struct {
	UserID               string          `json:"userId"`
	Completed            int             `json:"completed"`
	Expected             int             `json:"expected"`
	CompletionPercentage float64         `json:"completionPercentage"`
	HasCompletedAll      bool            `json:"hasCompletedAll"`
	TopSkills            []CategoryScore `json:"topSkills"`
	Timeline             []TimelinePoint `json:"timeline"`
}

// ScoreReport is the outcome of scoring an answer record without storing it.
type ScoreReport struct {
	AssessmentID  string          `json:"assessmentId"`
	Mode          ScoringMode     `json:"mode"`
	Scores        CategoryScores  `json:"scores"`
	Total         float64         `json:"total"`
	TopCategories []CategoryScore `json:"topCategories"`
}

// Progress describes where a user is inside an in-flight attempt.
type Progress struct {
	AssessmentID    string    `json:"assessmentId"`
	Current         int       `json:"current"`
	Total           int       `json:"total"`
	Answered        int       `json:"answered"`
	Percent         float64   `json:"percent"`
	CurrentAnswered bool      `json:"currentAnswered"`
	StartedAt       time.Time `json:"startedAt"`
	Question        *Question `json:"question,omitempty"`
}

// Recommendation is a career suggestion returned by the advisor.
type Recommendation struct {
	Career      string  `json:"career"`
	Match       float64 `json:"match"`
	Description string  `json:"description"`
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of an advisor conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatReply wraps the advisor's answer; IsError marks a degraded reply.
type ChatReply struct {
	Message ChatMessage `json:"message"`
	IsError bool        `json:"isError"`
}

// Snapshot is the last persisted score map of one assessment type for a user.
// Scores is nil when the assessment has not been completed.
type Snapshot struct {
	AssessmentID string         `json:"assessmentId"`
	Title        string         `json:"title"`
	Scores       CategoryScores `json:"scores"`
}

// Completed reports whether a snapshot was found.
func (s Snapshot) Completed() bool {
	return len(s.Scores) > 0
}
