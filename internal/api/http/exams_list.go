package http

import (
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-tutor/internal/exam"
)

const (
	defaultQuestions = 5
	maxQuestions     = 50
)

// POST /quizzes  { "text": "...", "title": "...", "source": "...", "num_questions": 5 }
func GenerateQuizHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		var req struct {
			Text         string `json:"text"`
			Title        string `json:"title"`
			Source       string `json:"source"`
			NumQuestions *int   `json:"num_questions"`
		}
		if !decode(w, r, &req) {
			return
		}
		n := defaultQuestions
		if req.NumQuestions != nil {
			n = *req.NumQuestions
		}
		if n > maxQuestions {
			fail(w, http.StatusBadRequest, "num_questions must be at most 50")
			return
		}
		title := strings.TrimSpace(req.Title)
		if title == "" {
			src := strings.TrimSpace(req.Source)
			if src == "" {
				src = "your material"
			}
			title = "Quiz on " + src
		}
		qz, err := svc.Generate(r.Context(), userID, req.Text, title, n)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusCreated, "Quiz generated.", qz.StudentView())
	}
}

// GET /quizzes?q=&mine=1&limit=&offset=
func ListQuizzesHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		q := r.URL.Query()
		opts := exam.ListOpts{
			Q:      strings.TrimSpace(q.Get("q")),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		}
		if q.Get("mine") == "1" || q.Get("mine") == "true" {
			opts.CreatedBy = userID
		}
		list, err := svc.List(r.Context(), opts)
		if err != nil {
			failErr(w, r, err)
			return
		}
		if list == nil {
			list = []exam.QuizSummary{}
		}
		ok(w, http.StatusOK, "", list)
	}
}

// GET /quizzes/{quizID}
func GetQuizHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, valid := idParam(w, r, "quizID")
		if !valid {
			return
		}
		qz, err := svc.Quiz(r.Context(), id)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, "", qz.StudentView())
	}
}
