package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mind-engage/mindengage-tutor/internal/activity"
	"github.com/mind-engage/mindengage-tutor/internal/exam"
	"github.com/mind-engage/mindengage-tutor/internal/storage"
)

var (
	ErrNoHistory     = errors.New("you haven't taken any quizzes yet; complete some quizzes to generate a progress report")
	ErrUnknownFormat = errors.New("report format must be html or pdf")
)

// ExamSource is the slice of the exam service reports read from.
type ExamSource interface {
	History(ctx context.Context, userID int64) ([]exam.HistoryEntry, error)
	Attempt(ctx context.Context, attemptID, userID int64) (exam.Attempt, error)
	Quiz(ctx context.Context, id int64) (exam.Quiz, error)
}

type Recorder interface {
	Record(ctx context.Context, typ, ref string, userID int64, data any)
}

type PDFRenderFunc func(ctx context.Context, d Data) ([]byte, error)

type Service struct {
	store  *SQLStore
	exams  ExamSource
	blobs  storage.BlobStore
	pdf    PDFRenderFunc
	mailer Mailer
	events Recorder
	now    func() time.Time
}

func NewService(store *SQLStore, exams ExamSource, blobs storage.BlobStore, pdf PDFRenderFunc, mailer Mailer, events Recorder) *Service {
	return &Service{store: store, exams: exams, blobs: blobs, pdf: pdf, mailer: mailer, events: events, now: time.Now}
}

type Request struct {
	UserID   int64
	Username string
	Title    string
	Format   Format
	Email    string // optional; mail the report once generated
}

// Generated reports whether the optional email went out.
type Generated struct {
	Report   Report `json:"report"`
	Data     Data   `json:"data"`
	Emailed  bool   `json:"emailed"`
	MailNote string `json:"mail_error,omitempty"`
}

// Generate builds, stores and optionally emails a report from the user's
// full attempt history.
func (s *Service) Generate(ctx context.Context, req Request) (Generated, error) {
	format := Format(strings.ToLower(string(req.Format)))
	if format == "" {
		format = FormatPDF
	}
	if format != FormatHTML && format != FormatPDF {
		return Generated{}, ErrUnknownFormat
	}
	history, err := s.exams.History(ctx, req.UserID)
	if err != nil {
		return Generated{}, fmt.Errorf("load history: %w", err)
	}
	if len(history) == 0 {
		return Generated{}, ErrNoHistory
	}
	now := s.now()
	data := Prepare(req.Username, history, s.questionLines(ctx, req.UserID, history), now)
	if req.Title != "" {
		data.Title = req.Title
	}

	var body []byte
	switch format {
	case FormatHTML:
		body, err = RenderHTML(data)
	case FormatPDF:
		if s.pdf == nil {
			return Generated{}, ErrRendererMissing
		}
		body, err = s.pdf(ctx, data)
	}
	if err != nil {
		return Generated{}, err
	}

	key := fmt.Sprintf("reports/%d/%s.%s", req.UserID, uuid.NewString(), format)
	if _, err := s.blobs.Put(ctx, key, bytes.NewReader(body)); err != nil {
		return Generated{}, fmt.Errorf("store report: %w", err)
	}
	r := Report{UserID: req.UserID, Title: data.Title, Format: format, Path: key, GeneratedAt: now.Unix()}
	if r.ID, err = s.store.Add(ctx, r); err != nil {
		return Generated{}, fmt.Errorf("save report: %w", err)
	}
	r.URL = s.url(key)
	s.record(ctx, activity.ReportGenerated, r, map[string]any{"format": format, "quizzes": data.TotalQuizzes})

	out := Generated{Report: r, Data: data}
	if req.Email != "" {
		if err := s.deliver(ctx, &out.Report, req.Email, body); err != nil {
			log.Printf("report %d: email to %s failed: %v", r.ID, req.Email, err)
			out.MailNote = err.Error()
		} else {
			out.Emailed = true
		}
	}
	return out, nil
}

// questionLines loads per-question details; failures only drop the detail.
func (s *Service) questionLines(ctx context.Context, userID int64, history []exam.HistoryEntry) map[int64][]QuestionLine {
	out := make(map[int64][]QuestionLine, len(history))
	for _, h := range history {
		a, err := s.exams.Attempt(ctx, h.AttemptID, userID)
		if err != nil {
			log.Printf("report: attempt %d: %v", h.AttemptID, err)
			continue
		}
		qz, err := s.exams.Quiz(ctx, h.QuizID)
		if err != nil {
			log.Printf("report: quiz %d: %v", h.QuizID, err)
			continue
		}
		byID := make(map[int64]exam.Response, len(a.Responses))
		for _, r := range a.Responses {
			byID[r.QuestionID] = r
		}
		for _, q := range qz.Questions {
			r, ok := byID[q.ID]
			if !ok {
				continue
			}
			out[h.AttemptID] = append(out[h.AttemptID], QuestionLine{Text: q.Text, UserAnswer: r.UserResponse, IsCorrect: r.IsCorrect})
		}
	}
	return out
}

// List returns the user's reports, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]Report, error) {
	reports, err := s.store.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range reports {
		reports[i].URL = s.url(reports[i].Path)
	}
	return reports, nil
}

// Email sends an existing report owned by userID.
func (s *Service) Email(ctx context.Context, reportID, userID int64, to string) (Report, error) {
	r, err := s.store.Get(ctx, reportID)
	if err != nil {
		return Report{}, err
	}
	if r.UserID != userID {
		return Report{}, ErrReportNotFound
	}
	rc, err := s.blobs.Get(ctx, r.Path)
	if err != nil {
		return Report{}, fmt.Errorf("load report file: %w", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return Report{}, err
	}
	if err := s.deliver(ctx, &r, to, body); err != nil {
		return Report{}, err
	}
	r.URL = s.url(r.Path)
	return r, nil
}

// url is empty when the store cannot link the key; the report stays
// reachable through its path.
func (s *Service) url(key string) string {
	u, err := s.blobs.URL(key)
	if err != nil {
		log.Printf("report: url for %s: %v", key, err)
	}
	return u
}

func (s *Service) deliver(ctx context.Context, r *Report, to string, body []byte) error {
	if s.mailer == nil {
		return ErrMailDisabled
	}
	subject := "MindEngage Tutor Progress Report - " + r.Title
	text := fmt.Sprintf("Hello,\n\nAttached is the progress report %q generated on %s.\n",
		r.Title, time.Unix(r.GeneratedAt, 0).Format(dateLayout))
	att := Attachment{
		Filename:    fmt.Sprintf("progress_report_%d.%s", r.ID, r.Format),
		ContentType: contentType(r.Format),
		Data:        body,
	}
	if err := s.mailer.Send(ctx, to, subject, text, att); err != nil {
		return err
	}
	now := s.now()
	if err := s.store.MarkEmailed(ctx, r.ID, to, now); err != nil {
		return err
	}
	at := now.Unix()
	r.EmailedTo, r.EmailedAt = &to, &at
	s.record(ctx, activity.ReportEmailed, *r, map[string]string{"to": to})
	return nil
}

func (s *Service) record(ctx context.Context, typ string, r Report, data any) {
	if s.events != nil {
		s.events.Record(ctx, typ, strconv.FormatInt(r.ID, 10), r.UserID, data)
	}
}

func contentType(f Format) string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/html; charset=utf-8"
}
