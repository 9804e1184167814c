package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-tutor/internal/activity"
	"github.com/mind-engage/mindengage-tutor/internal/exam"
)

// GET /attempts  -> the caller's history, newest first
func ListAttemptsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		hist, err := svc.History(r.Context(), userID)
		if err != nil {
			failErr(w, r, err)
			return
		}
		if hist == nil {
			hist = []exam.HistoryEntry{}
		}
		ok(w, http.StatusOK, "", hist)
	}
}

// GET /activity?limit=
func ActivityHandler(repo *activity.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		events, err := repo.ForUser(r.Context(), userID, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			failErr(w, r, err)
			return
		}
		if events == nil {
			events = []activity.Event{}
		}
		ok(w, http.StatusOK, "", events)
	}
}
