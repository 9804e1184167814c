package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-tutor/internal/auth"
	authmw "github.com/mind-engage/mindengage-tutor/internal/auth/middleware"
	"github.com/mind-engage/mindengage-tutor/internal/exam"
	"github.com/mind-engage/mindengage-tutor/internal/quiz"
	"github.com/mind-engage/mindengage-tutor/internal/report"
	"github.com/mind-engage/mindengage-tutor/internal/speech"
	"github.com/mind-engage/mindengage-tutor/internal/storage"
)

// Result is the envelope every endpoint answers with.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok[T any](w http.ResponseWriter, status int, msg string, data T) {
	writeJSON(w, status, Result[T]{Success: true, Message: msg, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Result[struct{}]{Success: false, Message: msg})
}

// failErr maps domain errors to a status code and a user-facing message.
func failErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *auth.ValidationError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		fail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrNotAdminInvite), errors.Is(err, auth.ErrNotAdminList):
		fail(w, http.StatusForbidden, err.Error())
	case errors.As(err, &ve):
		fail(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, exam.ErrQuizNotFound), errors.Is(err, exam.ErrAttemptNotFound),
		errors.Is(err, report.ErrReportNotFound), errors.Is(err, storage.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, exam.ErrAttemptCompleted):
		fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, exam.ErrIncomplete), errors.Is(err, exam.ErrQuestionIndex),
		errors.Is(err, quiz.ErrInvalidCount), errors.Is(err, report.ErrNoHistory),
		errors.Is(err, report.ErrUnknownFormat), errors.Is(err, report.ErrInvalidRecipient),
		errors.Is(err, speech.ErrEmptyText):
		fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, report.ErrMailDisabled), errors.Is(err, report.ErrRendererMissing):
		fail(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		fail(w, http.StatusInternalServerError, "internal error: "+err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}

// currentUser reads the authenticated user id; it answers 401 itself.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, found := authmw.UserIDFromContext(r.Context())
	if !found {
		fail(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, found
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		fail(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
