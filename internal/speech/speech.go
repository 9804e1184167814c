// Package speech renders text to MP3 through a Google Translate compatible
// TTS endpoint.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mind-engage/mindengage-tutor/internal/storage"
)

const (
	// chunkLimit is the endpoint's per-request character limit.
	chunkLimit = 200
	// segmentLimit bounds one audio file.
	segmentLimit = 5000
)

var ErrEmptyText = errors.New("no text to speak")

// Clip is one stored audio file.
type Clip struct {
	Key    string `json:"key"`
	URL    string `json:"url,omitempty"`
	Chunks int    `json:"chunks"`
}

type Client struct {
	HTTP     *http.Client
	Endpoint string
	Lang     string
	Slow     bool

	blobs storage.BlobStore
}

func NewClient(endpoint, lang string, blobs storage.BlobStore) *Client {
	if lang == "" {
		lang = "en"
	}
	return &Client{
		HTTP:     &http.Client{Timeout: 15 * time.Second},
		Endpoint: endpoint,
		Lang:     lang,
		blobs:    blobs,
	}
}

// Synthesize fetches audio for every chunk of text, concatenates the MP3
// frames and stores the result as audio/<uuid>.mp3.
func (c *Client) Synthesize(ctx context.Context, text string) (Clip, error) {
	parts := Chunks(text, chunkLimit)
	if len(parts) == 0 {
		return Clip{}, ErrEmptyText
	}
	var audio bytes.Buffer
	for i, p := range parts {
		if err := c.fetch(ctx, &audio, p, i, len(parts)); err != nil {
			return Clip{}, fmt.Errorf("tts chunk %d/%d: %w", i+1, len(parts), err)
		}
	}
	key := "audio/" + strings.ReplaceAll(uuid.NewString(), "-", "") + ".mp3"
	if _, err := c.blobs.Put(ctx, key, &audio); err != nil {
		return Clip{}, fmt.Errorf("store audio: %w", err)
	}
	u, err := c.blobs.URL(key)
	if err != nil {
		// the clip is still reachable by key
		log.Printf("speech: url for %s: %v", key, err)
	}
	return Clip{Key: key, URL: u, Chunks: len(parts)}, nil
}

// ForExplanation speaks long text as a sequence of clips, each cut at the
// last sentence end before the segment limit. A failed segment does not stop
// the rest; the first error is returned only when no clip succeeded.
func (c *Client) ForExplanation(ctx context.Context, text string) ([]Clip, error) {
	var clips []Clip
	var firstErr error
	for _, seg := range Segments(text, segmentLimit) {
		clip, err := c.Synthesize(ctx, seg)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		clips = append(clips, clip)
	}
	if len(clips) == 0 {
		if firstErr == nil {
			firstErr = ErrEmptyText
		}
		return nil, firstErr
	}
	return clips, nil
}

func (c *Client) fetch(ctx context.Context, w io.Writer, text string, idx, total int) error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", c.Lang)
	q.Set("q", text)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(text)))
	if c.Slow {
		q.Set("ttsspeed", "0.24")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("tts endpoint returned %s", resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// Chunks splits text into pieces of at most limit runes, breaking on
// whitespace. A single word longer than limit is cut.
func Chunks(text string, limit int) []string {
	var out []string
	var cur []rune
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			out = append(out, s)
		}
		cur = cur[:0]
	}
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > limit {
			flush()
			out = append(out, string(w[:limit]))
			w = w[limit:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > limit {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	flush()
	return out
}

// Segments splits text longer than limit runes at the last '.', '!' or '?'
// before the limit, or hard at the limit when there is none.
func Segments(text string, limit int) []string {
	var out []string
	r := []rune(text)
	for len(r) > limit {
		cut := lastSentenceEnd(r[:limit])
		if cut < 0 {
			cut = limit - 1
		}
		out = append(out, string(r[:cut+1]))
		r = r[cut+1:]
	}
	if strings.TrimSpace(string(r)) != "" {
		out = append(out, string(r))
	}
	return out
}

func lastSentenceEnd(r []rune) int {
	for _, p := range []rune{'.', '!', '?'} {
		for i := len(r) - 1; i >= 0; i-- {
			if r[i] == p {
				return i
			}
		}
	}
	return -1
}
