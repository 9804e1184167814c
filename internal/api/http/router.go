package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mind-engage/mindengage-tutor/internal/activity"
	"github.com/mind-engage/mindengage-tutor/internal/auth"
	authmw "github.com/mind-engage/mindengage-tutor/internal/auth/middleware"
	"github.com/mind-engage/mindengage-tutor/internal/exam"
	"github.com/mind-engage/mindengage-tutor/internal/extract"
	"github.com/mind-engage/mindengage-tutor/internal/rbac"
	"github.com/mind-engage/mindengage-tutor/internal/report"
	"github.com/mind-engage/mindengage-tutor/internal/speech"
	"github.com/mind-engage/mindengage-tutor/internal/storage"
)

// Server holds the services the HTTP surface is built from.
type Server struct {
	Tokens   *authmw.AuthService
	Users    *auth.Manager
	Exams    *exam.Service
	Uploads  *extract.Manager
	Reports  *report.Service
	Speech   *speech.Client
	Activity *activity.Repo
	Blobs    storage.BlobStore

	// Ready reports whether dependencies are reachable; nil means always.
	Ready func(r *http.Request) error
}

// Mount registers every route on r.
func (s *Server) Mount(r chi.Router) {
	r.Post("/auth/register", RegisterHandler(s.Users))
	r.Post("/auth/login", LoginHandler(s.Users))

	// Protected API (JWT → role from DB → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(s.Tokens))
		pr.Use(authmw.AttachRoleFromDB(s.Users.IsAdmin))

		pr.With(rbac.Require("upload:create")).
			Post("/uploads", UploadHandler(s.Uploads, s.Activity))
		pr.With(rbac.Require("explain:create")).
			Post("/explanations", ExplainHandler())
		pr.With(rbac.Require("speech:create")).
			Post("/speech", SpeechHandler(s.Speech))

		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes", GenerateQuizHandler(s.Exams))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes", ListQuizzesHandler(s.Exams))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", GetQuizHandler(s.Exams))

		pr.With(rbac.Require("attempt:create")).
			Post("/quizzes/{quizID}/attempts", StartAttemptHandler(s.Exams))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/responses", SaveResponseHandler(s.Exams))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(s.Exams))
		pr.With(rbac.Require("attempt:view-own")).
			Get("/attempts", ListAttemptsHandler(s.Exams))
		pr.With(rbac.Require("attempt:view-own")).
			Get("/attempts/{attemptID}", GetAttemptHandler(s.Exams))

		pr.With(rbac.Require("report:create")).
			Post("/reports", GenerateReportHandler(s.Reports, s.Users))
		pr.With(rbac.Require("report:view-own")).
			Get("/reports", ListReportsHandler(s.Reports))
		pr.With(rbac.Require("report:email")).
			Post("/reports/{reportID}/email", EmailReportHandler(s.Reports))

		pr.With(rbac.Require("invite:create")).
			Post("/invites", CreateInviteHandler(s.Users))
		pr.With(rbac.Require("invite:list")).
			Get("/invites", ListInvitesHandler(s.Users))
		pr.With(rbac.Require("users:list")).
			Get("/admin/users", ListUsersHandler(s.Users))
		pr.With(rbac.Require("users:update")).
			Patch("/admin/users/{userID}", AdminUpdateUserRoleHandler(s.Users))
		pr.With(rbac.Require("subscription:activate")).
			Post("/subscription", ActivateSubscriptionHandler(s.Users))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", ChangePasswordHandler(s.Users))
		pr.With(rbac.Require("activity:view-own")).
			Get("/activity", ActivityHandler(s.Activity))

		pr.Route("/files", func(fr chi.Router) {
			fr.Use(rbac.Require("file:view"))
			MountFiles(fr, s.Blobs)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.Ready != nil {
			if err := s.Ready(r); err != nil {
				fail(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

// Handler returns a router with the standard middleware stack.
func (s *Server) Handler(corsMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if corsMW != nil {
		r.Use(corsMW)
	}
	s.Mount(r)
	return r
}
