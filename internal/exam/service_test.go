package exam

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/mindengage-tutor/internal/activity"
	"github.com/mind-engage/mindengage-tutor/internal/grading"
	"github.com/mind-engage/mindengage-tutor/internal/quiz"
)

type recorded struct{ typ, ref string }

type fakeRecorder struct{ events []recorded }

func (f *fakeRecorder) Record(_ context.Context, typ, ref string, _ int64, _ any) {
	f.events = append(f.events, recorded{typ, ref})
}

const mitochondria = "The mitochondria is the powerhouse of the cell. Ribosomes are are responsible for protein synthesis."

func newTestService(t *testing.T) (*Service, *fakeRecorder, int64, int64) {
	t.Helper()
	dbh := openTestDB(t)
	ada := addUser(t, dbh, "ada")
	bob := addUser(t, dbh, "bob")
	rec := &fakeRecorder{}
	svc := NewService(NewSQLStore(dbh), quiz.New(11), grading.NewDefaultGrader(), rec)
	return svc, rec, ada, bob
}

func TestServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, rec, ada, bob := newTestService(t)

	qz, err := svc.Generate(ctx, ada, mitochondria, "Cells", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(qz.Questions) != 2 {
		t.Fatalf("want 2 stored questions, got %d", len(qz.Questions))
	}

	a, err := svc.Start(ctx, qz.ID, ada)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Answer(ctx, a.ID, bob, 0, "x"); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("other users must not answer: %v", err)
	}
	if _, err := svc.Answer(ctx, a.ID, ada, 5, "x"); !errors.Is(err, ErrQuestionIndex) {
		t.Fatalf("want ErrQuestionIndex, got %v", err)
	}

	// answer the first question correctly
	first := qz.Questions[0]
	r, err := svc.Answer(ctx, a.ID, ada, 0, first.CorrectAnswer)
	if err != nil || r.UserResponse != first.CorrectAnswer {
		t.Fatalf("answer = %+v, %v", r, err)
	}
	if _, err := svc.Submit(ctx, a.ID, ada); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("want ErrIncomplete, got %v", err)
	}
	if _, err := svc.Answer(ctx, a.ID, ada, 1, "completely unrelated words"); err != nil {
		t.Fatal(err)
	}

	sub, err := svc.Submit(ctx, a.ID, ada)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Summary.Correct != 1 || sub.Summary.Total != 2 || sub.Summary.Band != grading.BandNeedsReview {
		t.Fatalf("summary = %+v", sub.Summary)
	}
	if *sub.Attempt.Score != 1 || *sub.Attempt.MaxScore != 2 || len(sub.Results) != 2 {
		t.Fatalf("submission = %+v", sub)
	}
	if !sub.Results[0].IsCorrect || sub.Results[1].IsCorrect {
		t.Fatalf("results = %+v", sub.Results)
	}

	if _, err := svc.Answer(ctx, a.ID, ada, 0, "late"); !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("completed attempts are immutable: %v", err)
	}
	if _, err := svc.Submit(ctx, a.ID, ada); !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("double submit: %v", err)
	}

	hist, err := svc.History(ctx, ada)
	if err != nil || len(hist) != 1 || hist[0].CompletedAt == nil {
		t.Fatalf("history = %+v, %v", hist, err)
	}

	want := []string{activity.QuizGenerated, activity.AttemptStarted, activity.AttemptCompleted}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %+v", rec.events)
	}
	for i, typ := range want {
		if rec.events[i].typ != typ {
			t.Fatalf("event %d = %s, want %s", i, rec.events[i].typ, typ)
		}
	}
}

func TestServiceAttemptOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _, ada, bob := newTestService(t)
	qz, _ := svc.Generate(ctx, ada, mitochondria, "Cells", 1)
	a, _ := svc.Start(ctx, qz.ID, ada)
	if _, err := svc.Attempt(ctx, a.ID, bob); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("want ErrAttemptNotFound, got %v", err)
	}
	got, err := svc.Attempt(ctx, a.ID, ada)
	if err != nil || got.QuizID != qz.ID {
		t.Fatalf("attempt = %+v, %v", got, err)
	}
}

func TestOpenAttemptHidesCorrectness(t *testing.T) {
	ctx := context.Background()
	svc, _, ada, _ := newTestService(t)
	qz, err := svc.Generate(ctx, ada, mitochondria, "Cells", 2)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := svc.Start(ctx, qz.ID, ada)

	// cycling through candidate answers must not reveal which one is right
	for i, q := range qz.Questions {
		tries := append([]string{"nothing like it"}, q.Options...)
		tries = append(tries, q.CorrectAnswer)
		for _, try := range tries {
			r, err := svc.Answer(ctx, a.ID, ada, i, try)
			if err != nil {
				t.Fatal(err)
			}
			if r.IsCorrect || r.Verdict != nil {
				t.Fatalf("q%d %q: open answer exposed correctness: %+v", i, try, r)
			}
		}
	}

	open, err := svc.Attempt(ctx, a.ID, ada)
	if err != nil || len(open.Responses) != len(qz.Questions) {
		t.Fatalf("attempt = %+v, %v", open, err)
	}
	for _, r := range open.Responses {
		if r.IsCorrect || r.Verdict != nil {
			t.Fatalf("open attempt exposed correctness: %+v", r)
		}
	}

	if _, err := svc.Submit(ctx, a.ID, ada); err != nil {
		t.Fatal(err)
	}
	done, err := svc.Attempt(ctx, a.ID, ada)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range done.Responses {
		if r.Verdict == nil || !*r.Verdict || !r.IsCorrect {
			t.Fatalf("submitted attempt should carry verdicts: %+v", r)
		}
	}
}
