package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/mind-engage/mindengage-tutor/internal/activity"
	api "github.com/mind-engage/mindengage-tutor/internal/api/http"
	"github.com/mind-engage/mindengage-tutor/internal/auth"
	authmw "github.com/mind-engage/mindengage-tutor/internal/auth/middleware"
	"github.com/mind-engage/mindengage-tutor/internal/config"
	"github.com/mind-engage/mindengage-tutor/internal/db"
	"github.com/mind-engage/mindengage-tutor/internal/exam"
	"github.com/mind-engage/mindengage-tutor/internal/extract"
	"github.com/mind-engage/mindengage-tutor/internal/grading"
	"github.com/mind-engage/mindengage-tutor/internal/quiz"
	"github.com/mind-engage/mindengage-tutor/internal/report"
	"github.com/mind-engage/mindengage-tutor/internal/speech"
	"github.com/mind-engage/mindengage-tutor/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	// --- Blob storage ---
	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Services ---
	events := activity.NewRepo(dbh)
	tokens := authmw.NewAuthService(cfg.AuthSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	users := auth.NewManager(auth.NewSQLStore(dbh), tokens,
		auth.WithInviteTTL(time.Duration(cfg.InviteTTLDays)*24*time.Hour),
		auth.WithSubscriptionDays(cfg.SubscriptionDays),
		auth.WithRecorder(events),
	)
	exams := exam.NewService(exam.NewSQLStore(dbh), quiz.New(cfg.QuizSeed), grading.NewDefaultGrader(), events)
	uploads := extract.NewManager(blobs, extract.NewTesseract(cfg.OCRLang), extract.NewPDF(), extract.DOCX{})

	var mailer report.Mailer
	if cfg.SMTPEnabled() {
		mailer = report.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		log.Printf("smtp not configured; report emails disabled")
	}
	reports := report.NewService(report.NewSQLStore(dbh), exams, blobs,
		report.NewPDFRenderer(cfg.PDFRenderer).Render, mailer, events)

	srv := &api.Server{
		Tokens:   tokens,
		Users:    users,
		Exams:    exams,
		Uploads:  uploads,
		Reports:  reports,
		Speech:   speech.NewClient(cfg.TTSURL, cfg.TTSLang, blobs),
		Activity: events,
		Blobs:    blobs,
		Ready:    func(r *http.Request) error { return dbh.PingContext(r.Context()) },
	}
	handler := srv.Handler(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("listening on %s (db=%s, blobs=%s)", cfg.HTTPAddr, cfg.DBDriver, cfg.BlobDriver)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openBlobs(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.BlobDriver {
	case "s3":
		s3s, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return s3s, nil
	default:
		fs, err := storage.NewFSStore(cfg.BlobBasePath)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
}
