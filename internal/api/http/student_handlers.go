package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-tutor/internal/exam"
)

// POST /quizzes/{quizID}/attempts
func StartAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		quizID, valid := idParam(w, r, "quizID")
		if !valid {
			return
		}
		a, err := svc.Start(r.Context(), quizID, userID)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusCreated, "", a)
	}
}

// POST /attempts/{attemptID}/responses  { "question_index": 0, "response": "..." }
func SaveResponseHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		attemptID, valid := idParam(w, r, "attemptID")
		if !valid {
			return
		}
		var req struct {
			QuestionIndex *int   `json:"question_index"`
			Response      string `json:"response"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.QuestionIndex == nil {
			fail(w, http.StatusBadRequest, "question_index required")
			return
		}
		resp, err := svc.Answer(r.Context(), attemptID, userID, *req.QuestionIndex, req.Response)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, "", resp)
	}
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		attemptID, valid := idParam(w, r, "attemptID")
		if !valid {
			return
		}
		sub, err := svc.Submit(r.Context(), attemptID, userID)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, sub.Summary.Message, sub)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		attemptID, valid := idParam(w, r, "attemptID")
		if !valid {
			return
		}
		a, err := svc.Attempt(r.Context(), attemptID, userID)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, "", a)
	}
}
