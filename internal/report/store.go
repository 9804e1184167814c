package report

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrReportNotFound = errors.New("report not found")

type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// Report is one generated document; Path is its blob key.
type Report struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Format      Format  `json:"format"`
	Path        string  `json:"report_path"`
	URL         string  `json:"url,omitempty"`
	GeneratedAt int64   `json:"generated_at"`
	EmailedTo   *string `json:"emailed_to,omitempty"`
	EmailedAt   *int64  `json:"emailed_at,omitempty"`
}

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Add(ctx context.Context, r Report) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO progress_reports (user_id, title, format, report_path, generated_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		r.UserID, r.Title, string(r.Format), r.Path, r.GeneratedAt).Scan(&id)
	return id, err
}

func (s *SQLStore) MarkEmailed(ctx context.Context, id int64, to string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE progress_reports SET emailed_to=$1, emailed_at=$2 WHERE id=$3`, to, at.Unix(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReportNotFound
	}
	return nil
}

const reportColumns = `id, user_id, title, format, report_path, generated_at, emailed_to, emailed_at`

func scanReport(row interface{ Scan(...any) error }) (Report, error) {
	var r Report
	var format string
	var path, to sql.NullString
	var at sql.NullInt64
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &format, &path, &r.GeneratedAt, &to, &at); err != nil {
		return Report{}, err
	}
	r.Format, r.Path = Format(format), path.String
	if to.Valid {
		r.EmailedTo = &to.String
	}
	if at.Valid {
		r.EmailedAt = &at.Int64
	}
	return r, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Report, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM progress_reports WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrReportNotFound
	}
	return r, err
}

// ForUser lists a user's reports, newest first.
func (s *SQLStore) ForUser(ctx context.Context, userID int64) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM progress_reports WHERE user_id=$1 ORDER BY generated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
