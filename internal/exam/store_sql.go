package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mind-engage/mindengage-tutor/internal/quiz"
)

// SQLStore runs on both drivers; queries stay within the SQL they share.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// WithClock replaces the time source used for timestamps.
func (s *SQLStore) WithClock(now func() time.Time) *SQLStore {
	s.now = now
	return s
}

func (s *SQLStore) CreateQuiz(ctx context.Context, title, sourceMaterial string, createdBy int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO quizzes (title, source_material, created_by, created_at)
		 VALUES ($1,$2,$3,$4) RETURNING id`,
		title, sourceMaterial, nullID(createdBy), s.now().Unix()).Scan(&id)
	return id, err
}

func (s *SQLStore) AddQuestion(ctx context.Context, quizID int64, position int, q quiz.Question) (int64, error) {
	var opts sql.NullString
	if q.Kind == quiz.MultipleChoice {
		b, err := json.Marshal(q.Options)
		if err != nil {
			return 0, err
		}
		opts = sql.NullString{String: string(b), Valid: true}
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO questions (quiz_id, position, question_text, question_type, correct_answer, options)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		quizID, position, q.Text, string(q.Kind), q.CorrectAnswer, opts).Scan(&id)
	return id, err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id int64) (Quiz, error) {
	var qz Quiz
	var src sql.NullString
	var by sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, source_material, created_by, created_at FROM quizzes WHERE id=$1`, id).
		Scan(&qz.ID, &qz.Title, &src, &by, &qz.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, ErrQuizNotFound
	}
	if err != nil {
		return Quiz{}, err
	}
	qz.SourceMaterial, qz.CreatedBy = src.String, by.Int64

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quiz_id, position, question_text, question_type, correct_answer, options
		 FROM questions WHERE quiz_id=$1 ORDER BY position, id`, id)
	if err != nil {
		return Quiz{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var q Question
		var kind string
		var answer, opts sql.NullString
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Position, &q.Text, &kind, &answer, &opts); err != nil {
			return Quiz{}, err
		}
		q.Kind, q.CorrectAnswer = quiz.Kind(kind), answer.String
		if opts.Valid && opts.String != "" {
			if err := json.Unmarshal([]byte(opts.String), &q.Options); err != nil {
				return Quiz{}, fmt.Errorf("question %d options: %w", q.ID, err)
			}
		}
		qz.Questions = append(qz.Questions, q)
	}
	return qz, rows.Err()
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts ListOpts) ([]QuizSummary, error) {
	query := `SELECT z.id, z.title, z.created_by, z.created_at,
	            (SELECT COUNT(*) FROM questions q WHERE q.quiz_id = z.id)
	          FROM quizzes z`
	var args []any
	if opts.CreatedBy != 0 {
		query += ` WHERE z.created_by = $1`
		args = append(args, opts.CreatedBy)
	}
	query += ` ORDER BY z.created_at DESC, z.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []QuizSummary
	for rows.Next() {
		var qs QuizSummary
		var by sql.NullInt64
		if err := rows.Scan(&qs.ID, &qs.Title, &by, &qs.CreatedAt, &qs.QuestionCount); err != nil {
			return nil, err
		}
		qs.CreatedBy = by.Int64
		out = append(out, qs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if opts.Q != "" {
		out = fuzzyFilter(out, opts.Q)
	}
	return paginate(out, opts.Offset, opts.Limit), nil
}

// fuzzyFilter keeps titles containing the query's characters in order,
// closest matches first.
func fuzzyFilter(in []QuizSummary, q string) []QuizSummary {
	type ranked struct {
		QuizSummary
		rank int
	}
	var hits []ranked
	for _, qs := range in {
		if r := fuzzy.RankMatchFold(q, qs.Title); r >= 0 {
			hits = append(hits, ranked{qs, r})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })
	out := make([]QuizSummary, len(hits))
	for i, h := range hits {
		out[i] = h.QuizSummary
	}
	return out
}

func paginate[T any](in []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func (s *SQLStore) StartAttempt(ctx context.Context, quizID, userID int64) (int64, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE id=$1`, quizID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrQuizNotFound
	}
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO quiz_attempts (quiz_id, user_id, started_at) VALUES ($1,$2,$3) RETURNING id`,
		quizID, userID, s.now().Unix()).Scan(&id)
	return id, err
}

// RecordResponse stores the answer for one question, replacing an earlier
// answer to the same question in the same attempt.
func (s *SQLStore) RecordResponse(ctx context.Context, attemptID, questionID int64, response string, correct bool) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE question_responses SET user_response=$1, is_correct=$2
		 WHERE attempt_id=$3 AND question_id=$4`,
		response, correct, attemptID, questionID)
	if err != nil {
		return 0, err
	}
	var id int64
	if n, _ := res.RowsAffected(); n > 0 {
		err = s.db.QueryRowContext(ctx,
			`SELECT id FROM question_responses WHERE attempt_id=$1 AND question_id=$2 ORDER BY id LIMIT 1`,
			attemptID, questionID).Scan(&id)
		return id, err
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO question_responses (attempt_id, question_id, user_response, is_correct)
		 VALUES ($1,$2,$3,$4) RETURNING id`,
		attemptID, questionID, response, correct).Scan(&id)
	return id, err
}

func (s *SQLStore) CompleteAttempt(ctx context.Context, attemptID int64, score float64, maxScore int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE quiz_attempts SET completed_at=$1, score=$2, max_score=$3
		 WHERE id=$4 AND completed_at IS NULL`,
		s.now().Unix(), score, maxScore, attemptID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetAttempt(ctx, attemptID); err != nil {
			return err
		}
		return ErrAttemptCompleted
	}
	return nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id int64) (Attempt, error) {
	var a Attempt
	var done sql.NullInt64
	var score sql.NullFloat64
	var maxScore sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, quiz_id, user_id, started_at, completed_at, score, max_score
		 FROM quiz_attempts WHERE id=$1`, id).
		Scan(&a.ID, &a.QuizID, &a.UserID, &a.StartedAt, &done, &score, &maxScore)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrAttemptNotFound
	}
	if err != nil {
		return Attempt{}, err
	}
	a.CompletedAt, a.Score, a.MaxScore = int64Ptr(done), floatPtr(score), intPtr(maxScore)
	return a, nil
}

func (s *SQLStore) AttemptResponses(ctx context.Context, attemptID int64) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, attempt_id, question_id, user_response, is_correct
		 FROM question_responses WHERE attempt_id=$1 ORDER BY id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Response
	for rows.Next() {
		var r Response
		var resp sql.NullString
		if err := rows.Scan(&r.ID, &r.AttemptID, &r.QuestionID, &resp, &r.IsCorrect); err != nil {
			return nil, err
		}
		r.UserResponse = resp.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetHistory(ctx context.Context, userID int64) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.quiz_id, q.title, a.started_at, a.completed_at, a.score, a.max_score
		 FROM quiz_attempts a JOIN quizzes q ON q.id = a.quiz_id
		 WHERE a.user_id=$1
		 ORDER BY a.started_at DESC, a.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		var done sql.NullInt64
		var score sql.NullFloat64
		var maxScore sql.NullInt64
		if err := rows.Scan(&h.AttemptID, &h.QuizID, &h.QuizTitle, &h.StartedAt, &done, &score, &maxScore); err != nil {
			return nil, err
		}
		h.CompletedAt, h.Score, h.MaxScore = int64Ptr(done), floatPtr(score), intPtr(maxScore)
		out = append(out, h)
	}
	return out, rows.Err()
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
