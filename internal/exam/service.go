package exam

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mind-engage/mindengage-tutor/internal/activity"
	"github.com/mind-engage/mindengage-tutor/internal/grading"
	"github.com/mind-engage/mindengage-tutor/internal/quiz"
	"github.com/samber/lo"
)

var (
	ErrQuestionIndex = errors.New("question index out of range")
	ErrIncomplete    = errors.New("please answer all questions before submitting")
)

// Recorder receives activity events. *activity.Repo satisfies it.
type Recorder interface {
	Record(ctx context.Context, typ, ref string, userID int64, data any)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, string, string, int64, any) {}

// Service runs the quiz lifecycle: generate and save, start, answer, submit.
type Service struct {
	store  Store
	gen    *quiz.Generator
	grader grading.Grader
	events Recorder
}

func NewService(store Store, gen *quiz.Generator, grader grading.Grader, events Recorder) *Service {
	if events == nil {
		events = nopRecorder{}
	}
	return &Service{store: store, gen: gen, grader: grader, events: events}
}

// Generate builds a quiz from text and persists it for userID.
func (s *Service) Generate(ctx context.Context, userID int64, text, title string, n int) (Quiz, error) {
	qz, err := s.gen.Generate(text, title, n)
	if err != nil {
		return Quiz{}, err
	}
	return s.SaveGenerated(ctx, userID, qz)
}

// SaveGenerated stores a quiz and its questions in order.
func (s *Service) SaveGenerated(ctx context.Context, userID int64, qz quiz.Quiz) (Quiz, error) {
	id, err := s.store.CreateQuiz(ctx, qz.Title, qz.SourceMaterial, userID)
	if err != nil {
		return Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	for i, q := range qz.Questions {
		if _, err := s.store.AddQuestion(ctx, id, i, q); err != nil {
			return Quiz{}, fmt.Errorf("add question %d: %w", i, err)
		}
	}
	s.events.Record(ctx, activity.QuizGenerated, strconv.FormatInt(id, 10), userID,
		map[string]any{"title": qz.Title, "questions": len(qz.Questions)})
	return s.store.GetQuiz(ctx, id)
}

func (s *Service) Quiz(ctx context.Context, id int64) (Quiz, error) {
	return s.store.GetQuiz(ctx, id)
}

func (s *Service) List(ctx context.Context, opts ListOpts) ([]QuizSummary, error) {
	return s.store.ListQuizzes(ctx, opts)
}

func (s *Service) Start(ctx context.Context, quizID, userID int64) (Attempt, error) {
	id, err := s.store.StartAttempt(ctx, quizID, userID)
	if err != nil {
		return Attempt{}, err
	}
	s.events.Record(ctx, activity.AttemptStarted, strconv.FormatInt(id, 10), userID,
		map[string]int64{"quiz_id": quizID})
	return s.store.GetAttempt(ctx, id)
}

// openAttempt loads an attempt owned by userID that is still accepting
// answers. Attempts of other users look missing.
func (s *Service) openAttempt(ctx context.Context, attemptID, userID int64) (Attempt, Quiz, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, Quiz{}, err
	}
	if a.UserID != userID {
		return Attempt{}, Quiz{}, ErrAttemptNotFound
	}
	if a.Completed() {
		return Attempt{}, Quiz{}, ErrAttemptCompleted
	}
	qz, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, Quiz{}, err
	}
	return a, qz, nil
}

// Answer grades and records the response to the question at index.
// Answering the same question again replaces the earlier response.
// Correctness is only reported by Submit.
func (s *Service) Answer(ctx context.Context, attemptID, userID int64, index int, text string) (Response, error) {
	_, qz, err := s.openAttempt(ctx, attemptID, userID)
	if err != nil {
		return Response{}, err
	}
	if index < 0 || index >= len(qz.Questions) {
		return Response{}, ErrQuestionIndex
	}
	q := qz.Questions[index]
	res := s.grader.Grade(grading.Q{Kind: string(q.Kind), CorrectAnswer: q.CorrectAnswer}, text)
	id, err := s.store.RecordResponse(ctx, attemptID, q.ID, text, res.Correct)
	if err != nil {
		return Response{}, fmt.Errorf("record response: %w", err)
	}
	r := Response{ID: id, AttemptID: attemptID, QuestionID: q.ID, UserResponse: text, IsCorrect: res.Correct}
	return r.sealed(), nil
}

// QuestionResult is the per-question breakdown shown after submission.
type QuestionResult struct {
	Text          string    `json:"question_text"`
	Kind          quiz.Kind `json:"question_type"`
	CorrectAnswer string    `json:"correct_answer"`
	UserResponse  string    `json:"user_response"`
	IsCorrect     bool      `json:"is_correct"`
}

type Submission struct {
	Attempt Attempt          `json:"attempt"`
	Summary grading.Summary  `json:"summary"`
	Results []QuestionResult `json:"results"`
}

// Submit scores the attempt as the number of correct responses out of the
// number of questions and closes it.
func (s *Service) Submit(ctx context.Context, attemptID, userID int64) (Submission, error) {
	_, qz, err := s.openAttempt(ctx, attemptID, userID)
	if err != nil {
		return Submission{}, err
	}
	responses, err := s.store.AttemptResponses(ctx, attemptID)
	if err != nil {
		return Submission{}, err
	}
	byQuestion := make(map[int64]Response, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}
	if len(byQuestion) < len(qz.Questions) {
		return Submission{}, ErrIncomplete
	}

	correct := 0
	results := make([]QuestionResult, 0, len(qz.Questions))
	for _, q := range qz.Questions {
		r := byQuestion[q.ID]
		if r.IsCorrect {
			correct++
		}
		results = append(results, QuestionResult{
			Text: q.Text, Kind: q.Kind, CorrectAnswer: q.CorrectAnswer,
			UserResponse: r.UserResponse, IsCorrect: r.IsCorrect,
		})
	}
	total := len(qz.Questions)
	if err := s.store.CompleteAttempt(ctx, attemptID, float64(correct), total); err != nil {
		return Submission{}, err
	}
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Submission{}, err
	}
	a.Responses = lo.Map(responses, func(r Response, _ int) Response { return r.revealed() })
	sum := grading.Summarize(correct, total)
	s.events.Record(ctx, activity.AttemptCompleted, strconv.FormatInt(attemptID, 10), userID,
		map[string]any{"quiz_id": qz.ID, "score": correct, "max_score": total})
	return Submission{Attempt: a, Summary: sum, Results: results}, nil
}

// Attempt returns an attempt owned by userID with its responses. Responses
// of an open attempt carry no correctness.
func (s *Service) Attempt(ctx context.Context, attemptID, userID int64) (Attempt, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.UserID != userID {
		return Attempt{}, ErrAttemptNotFound
	}
	responses, err := s.store.AttemptResponses(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	a.Responses = lo.Map(responses, func(r Response, _ int) Response {
		if a.Completed() {
			return r.revealed()
		}
		return r.sealed()
	})
	return a, nil
}

func (s *Service) History(ctx context.Context, userID int64) ([]HistoryEntry, error) {
	return s.store.GetHistory(ctx, userID)
}
