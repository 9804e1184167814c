package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-tutor/internal/auth"
	"github.com/mind-engage/mindengage-tutor/internal/report"
)

// POST /reports  { "title": "...", "format": "html|pdf", "email": "..." }
func GenerateReportHandler(svc *report.Service, users *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		var req struct {
			Title  string `json:"title"`
			Format string `json:"format"`
			Email  string `json:"email"`
		}
		if !decode(w, r, &req) {
			return
		}
		u, err := users.User(r.Context(), userID)
		if err != nil {
			failErr(w, r, err)
			return
		}
		g, err := svc.Generate(r.Context(), report.Request{
			UserID:   userID,
			Username: u.Username,
			Title:    req.Title,
			Format:   report.Format(req.Format),
			Email:    req.Email,
		})
		if err != nil {
			failErr(w, r, err)
			return
		}
		msg := "Report generated."
		switch {
		case g.Emailed:
			msg = "Report generated and sent to " + req.Email + "."
		case g.MailNote != "":
			msg = "Report generated, but the email could not be sent: " + g.MailNote
		}
		ok(w, http.StatusCreated, msg, g)
	}
}

// GET /reports
func ListReportsHandler(svc *report.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		list, err := svc.List(r.Context(), userID)
		if err != nil {
			failErr(w, r, err)
			return
		}
		if list == nil {
			list = []report.Report{}
		}
		ok(w, http.StatusOK, "", list)
	}
}

// POST /reports/{reportID}/email  { "email": "..." }
func EmailReportHandler(svc *report.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		reportID, valid := idParam(w, r, "reportID")
		if !valid {
			return
		}
		var req struct {
			Email string `json:"email"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.Email == "" {
			fail(w, http.StatusBadRequest, "Please enter an email address.")
			return
		}
		rep, err := svc.Email(r.Context(), reportID, userID, req.Email)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, "Report sent to "+req.Email, rep)
	}
}
