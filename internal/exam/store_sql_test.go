package exam

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-tutor/internal/db"
	"github.com/mind-engage/mindengage-tutor/internal/quiz"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

func addUser(t *testing.T, dbh *sql.DB, name string) int64 {
	t.Helper()
	var id int64
	err := dbh.QueryRow(`INSERT INTO users (username, password_hash, created_at) VALUES ($1,'x',1) RETURNING id`, name).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSQLStoreQuizRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbh := openTestDB(t)
	uid := addUser(t, dbh, "ada")
	s := NewSQLStore(dbh)

	id, err := s.CreateQuiz(ctx, "Cells", "The mitochondria...", uid)
	if err != nil {
		t.Fatal(err)
	}
	mc := quiz.Question{Text: "The ________ is the powerhouse", Kind: quiz.MultipleChoice, CorrectAnswer: "mitochondria",
		Options: []string{"ribosome", "mitochondria", "nucleus", "membrane"}}
	sa := quiz.Question{Text: "What are Ribosomes?", Kind: quiz.ShortAnswer, CorrectAnswer: "Ribosomes are responsible for protein synthesis"}
	if _, err := s.AddQuestion(ctx, id, 0, mc); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddQuestion(ctx, id, 1, sa); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetQuiz(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Cells" || got.CreatedBy != uid || len(got.Questions) != 2 {
		t.Fatalf("unexpected quiz %+v", got)
	}
	if got.Questions[0].Kind != quiz.MultipleChoice || len(got.Questions[0].Options) != 4 || got.Questions[0].CorrectAnswer != "mitochondria" {
		t.Fatalf("mc question %+v", got.Questions[0])
	}
	if got.Questions[1].Options != nil {
		t.Fatalf("short answer should have no options: %+v", got.Questions[1])
	}
	if sv := got.StudentView(); sv.Questions[0].CorrectAnswer != "" || got.Questions[0].CorrectAnswer == "" {
		t.Fatal("StudentView must strip keys without touching the original")
	}

	if _, err := s.GetQuiz(ctx, 999); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("want ErrQuizNotFound, got %v", err)
	}
}

func TestSQLStoreListQuizzesFuzzy(t *testing.T) {
	ctx := context.Background()
	dbh := openTestDB(t)
	ada := addUser(t, dbh, "ada")
	bob := addUser(t, dbh, "bob")
	s := NewSQLStore(dbh)
	for _, title := range []string{"Photosynthesis basics", "World War II", "Cell biology"} {
		if _, err := s.CreateQuiz(ctx, title, "", ada); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.CreateQuiz(ctx, "Photons", "", bob); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListQuizzes(ctx, ListOpts{})
	if err != nil || len(all) != 4 {
		t.Fatalf("all = %v, %v", all, err)
	}
	mine, _ := s.ListQuizzes(ctx, ListOpts{CreatedBy: ada})
	if len(mine) != 3 {
		t.Fatalf("mine = %v", mine)
	}
	hits, _ := s.ListQuizzes(ctx, ListOpts{Q: "photo"})
	if len(hits) != 2 || hits[0].Title != "Photons" {
		t.Fatalf("fuzzy hits = %+v", hits)
	}
	page, _ := s.ListQuizzes(ctx, ListOpts{Offset: 3, Limit: 10})
	if len(page) != 1 {
		t.Fatalf("page = %v", page)
	}
}

func TestSQLStoreAttemptLifecycle(t *testing.T) {
	ctx := context.Background()
	dbh := openTestDB(t)
	uid := addUser(t, dbh, "ada")
	clock := time.Unix(1_700_000_000, 0)
	s := NewSQLStore(dbh).WithClock(func() time.Time { return clock })

	qid, _ := s.CreateQuiz(ctx, "Cells", "", uid)
	q1, _ := s.AddQuestion(ctx, qid, 0, quiz.Question{Text: "q", Kind: quiz.ShortAnswer, CorrectAnswer: "a"})

	if _, err := s.StartAttempt(ctx, 42, uid); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("want ErrQuizNotFound, got %v", err)
	}
	aid, err := s.StartAttempt(ctx, qid, uid)
	if err != nil {
		t.Fatal(err)
	}
	r1, err := s.RecordResponse(ctx, aid, q1, "first", false)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := s.RecordResponse(ctx, aid, q1, "a", true)
	if err != nil || r2 != r1 {
		t.Fatalf("re-answer should update row %d, got %d (%v)", r1, r2, err)
	}
	rs, _ := s.AttemptResponses(ctx, aid)
	if len(rs) != 1 || !rs[0].IsCorrect || rs[0].UserResponse != "a" {
		t.Fatalf("responses = %+v", rs)
	}

	clock = clock.Add(time.Minute)
	if err := s.CompleteAttempt(ctx, aid, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteAttempt(ctx, aid, 0, 1); !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("want ErrAttemptCompleted, got %v", err)
	}
	if err := s.CompleteAttempt(ctx, 999, 0, 1); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("want ErrAttemptNotFound, got %v", err)
	}

	a, _ := s.GetAttempt(ctx, aid)
	if !a.Completed() || *a.Score != 1 || *a.MaxScore != 1 || *a.CompletedAt != clock.Unix() {
		t.Fatalf("attempt = %+v", a)
	}

	hist, err := s.GetHistory(ctx, uid)
	if err != nil || len(hist) != 1 || hist[0].QuizTitle != "Cells" {
		t.Fatalf("history = %+v, %v", hist, err)
	}
}
