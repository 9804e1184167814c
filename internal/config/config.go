package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobDriver   string // fs|s3
	BlobBasePath string // for fs

	S3Bucket          string
	S3Endpoint        string // empty for AWS, set for R2/MinIO
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicURL       string

	AuthSecret    string
	TokenTTLHours int

	CORSOrigins []string

	// QuizSeed fixes the generator's random source; 0 means non-deterministic.
	QuizSeed uint64

	OCRLang string

	TTSURL  string
	TTSLang string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	PDFRenderer string

	InviteTTLDays    int
	SubscriptionDays int
}

func FromEnv() Config {
	return Config{
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		PublicURL:         os.Getenv("PUBLIC_URL"),
		DBDriver:          envOr("DB_DRIVER", "sqlite"),
		DBDSN:             envOr("DB_DSN", ""),
		BlobDriver:        envOr("BLOB_DRIVER", "fs"),
		BlobBasePath:      envOr("BLOB_BASE_PATH", "./data"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          envOr("S3_REGION", "auto"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3PublicURL:       os.Getenv("S3_PUBLIC_URL"),
		AuthSecret:        envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTLHours:     envInt("TOKEN_TTL", 8),
		CORSOrigins:       csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:8501"),
		QuizSeed:          uint64(envInt("QUIZ_SEED", 0)),
		OCRLang:           envOr("OCR_LANG", "eng"),
		TTSURL:            envOr("TTS_URL", "https://translate.google.com/translate_tts"),
		TTSLang:           envOr("TTS_LANG", "en"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          envInt("SMTP_PORT", 587),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		SMTPFrom:          envOr("SMTP_FROM", "tutor@localhost"),
		PDFRenderer:       envOr("PDF_RENDERER", "wkhtmltopdf"),
		InviteTTLDays:     envInt("INVITE_TTL_DAYS", 7),
		SubscriptionDays:  envInt("SUBSCRIPTION_DAYS", 30),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SMTPEnabled reports whether enough SMTP settings are present to send mail.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && envBool("SMTP_ENABLED", true)
}
