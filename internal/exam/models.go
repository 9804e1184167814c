package exam

import "github.com/mind-engage/mindengage-tutor/internal/quiz"

type Question struct {
	ID            int64     `json:"id"`
	QuizID        int64     `json:"quiz_id"`
	Position      int       `json:"position"`
	Text          string    `json:"question_text"`
	Kind          quiz.Kind `json:"question_type"`
	CorrectAnswer string    `json:"correct_answer,omitempty"`
	Options       []string  `json:"options,omitempty"`
}

type Quiz struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	SourceMaterial string     `json:"source_material,omitempty"`
	CreatedBy      int64      `json:"created_by"`
	CreatedAt      int64      `json:"created_at"`
	Questions      []Question `json:"questions,omitempty"`
}

// StudentView drops answer keys.
func (q Quiz) StudentView() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		qq.CorrectAnswer = ""
		out.Questions[i] = qq
	}
	return out
}

type QuizSummary struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	CreatedBy     int64  `json:"created_by"`
	CreatedAt     int64  `json:"created_at"`
	QuestionCount int    `json:"question_count"`
}

type Response struct {
	ID           int64  `json:"id"`
	AttemptID    int64  `json:"attempt_id"`
	QuestionID   int64  `json:"question_id"`
	UserResponse string `json:"user_response"`
	IsCorrect    bool   `json:"-"`
	// Verdict carries IsCorrect to clients once the attempt is submitted.
	Verdict *bool `json:"is_correct,omitempty"`
}

// sealed drops correctness so an open attempt reveals nothing about the key.
func (r Response) sealed() Response {
	r.IsCorrect = false
	r.Verdict = nil
	return r
}

func (r Response) revealed() Response {
	c := r.IsCorrect
	r.Verdict = &c
	return r
}

// Attempt is open until CompletedAt is set; after that it is immutable.
type Attempt struct {
	ID          int64      `json:"id"`
	QuizID      int64      `json:"quiz_id"`
	UserID      int64      `json:"user_id"`
	StartedAt   int64      `json:"started_at"`
	CompletedAt *int64     `json:"completed_at,omitempty"`
	Score       *float64   `json:"score,omitempty"`
	MaxScore    *int       `json:"max_score,omitempty"`
	Responses   []Response `json:"responses,omitempty"`
}

func (a Attempt) Completed() bool { return a.CompletedAt != nil }

// HistoryEntry is one attempt joined with its quiz title.
type HistoryEntry struct {
	AttemptID   int64    `json:"attempt_id"`
	QuizID      int64    `json:"quiz_id"`
	QuizTitle   string   `json:"quiz_title"`
	StartedAt   int64    `json:"started_at"`
	CompletedAt *int64   `json:"completed_at,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	MaxScore    *int     `json:"max_score,omitempty"`
}
