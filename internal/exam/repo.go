package exam

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-tutor/internal/quiz"
)

var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptCompleted = errors.New("attempt already completed")
)

type ListOpts struct {
	Q         string // fuzzy title filter
	CreatedBy int64  // 0 = all
	Limit     int
	Offset    int
}

// Store is the persistence boundary. Every call is a single auto-committing
// statement or read.
type Store interface {
	CreateQuiz(ctx context.Context, title, sourceMaterial string, createdBy int64) (int64, error)
	AddQuestion(ctx context.Context, quizID int64, position int, q quiz.Question) (int64, error)
	GetQuiz(ctx context.Context, id int64) (Quiz, error) // includes answer keys
	ListQuizzes(ctx context.Context, opts ListOpts) ([]QuizSummary, error)

	StartAttempt(ctx context.Context, quizID, userID int64) (int64, error)
	RecordResponse(ctx context.Context, attemptID, questionID int64, response string, correct bool) (int64, error)
	CompleteAttempt(ctx context.Context, attemptID int64, score float64, maxScore int) error
	GetAttempt(ctx context.Context, id int64) (Attempt, error)
	AttemptResponses(ctx context.Context, attemptID int64) ([]Response, error)
	GetHistory(ctx context.Context, userID int64) ([]HistoryEntry, error)
}
