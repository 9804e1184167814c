// Package activity keeps an append-only log of user actions.
package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"
)

// Event types.
const (
	QuizGenerated    = "QuizGenerated"
	AttemptStarted   = "AttemptStarted"
	AttemptCompleted = "AttemptCompleted"
	UserRegistered   = "UserRegistered"
	InviteCreated    = "InviteCreated"
	ReportGenerated  = "ReportGenerated"
	ReportEmailed    = "ReportEmailed"
	FileUploaded     = "FileUploaded"
)

type Event struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"`
	Ref       string `json:"ref"` // natural key: attempt/quiz/report id
	UserID    int64  `json:"user_id,omitempty"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, e Event) error {
	if e.DataJSON == "" {
		e.DataJSON = "{}"
	}
	var uid sql.NullInt64
	if e.UserID != 0 {
		uid = sql.NullInt64{Int64: e.UserID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, ref, user_id, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.Type, e.Ref, uid, e.DataJSON, time.Now().Unix())
	return err
}

// Record appends an event and only logs failures; the activity log never
// fails the action it describes.
func (r *Repo) Record(ctx context.Context, typ, ref string, userID int64, data any) {
	if r == nil {
		return
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("activity: marshal %s: %v", typ, err)
		b = []byte("{}")
	}
	if err := r.Append(ctx, Event{Type: typ, Ref: ref, UserID: userID, DataJSON: string(b)}); err != nil {
		log.Printf("activity: append %s %s: %v", typ, ref, err)
	}
}

// ForUser returns the user's most recent events, newest first.
func (r *Repo) ForUser(ctx context.Context, userID int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, typ, ref, user_id, data, created_at FROM event_log
		 WHERE user_id=$1 ORDER BY seq DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var uid sql.NullInt64
		if err := rows.Scan(&e.Seq, &e.Type, &e.Ref, &uid, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = uid.Int64
		out = append(out, e)
	}
	return out, rows.Err()
}
