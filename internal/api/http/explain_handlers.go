package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-tutor/internal/explain"
	"github.com/mind-engage/mindengage-tutor/internal/speech"
)

// POST /explanations  { "text": "...", "level": "simple|medium|advanced", "filename": "..." }
func ExplainHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text     string `json:"text"`
			Level    string `json:"level"`
			Filename string `json:"filename"`
		}
		if !decode(w, r, &req) {
			return
		}
		level := explain.ParseLevel(req.Level)
		ok(w, http.StatusOK, "", map[string]any{
			"level":       level,
			"subject":     explain.IdentifySubject(explain.Preprocess(req.Text), req.Filename),
			"explanation": explain.Generate(req.Text, level, req.Filename),
		})
	}
}

// POST /speech  { "text": "..." }
func SpeechHandler(c *speech.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if !decode(w, r, &req) {
			return
		}
		clips, err := c.ForExplanation(r.Context(), req.Text)
		if err != nil {
			failErr(w, r, err)
			return
		}
		ok(w, http.StatusCreated, "Audio generated.", clips)
	}
}
