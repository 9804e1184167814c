package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/mind-engage/mindengage-tutor/internal/storage"
)

func TestChunks(t *testing.T) {
	text := strings.Repeat("word ", 100) // 500 chars
	parts := Chunks(text, 200)
	if len(parts) != 3 {
		t.Fatalf("got %d chunks", len(parts))
	}
	for _, p := range parts {
		if utf8.RuneCountInString(p) > 200 || strings.HasPrefix(p, " ") || strings.HasSuffix(p, " ") {
			t.Fatalf("bad chunk %q", p)
		}
	}
	if got := strings.Join(parts, " "); got != strings.TrimSpace(text) {
		t.Fatal("chunks do not reassemble the text")
	}

	long := Chunks(strings.Repeat("x", 450), 200)
	if len(long) != 3 || len(long[2]) != 50 {
		t.Fatalf("long word chunks = %v", len(long))
	}
	if len(Chunks("   ", 200)) != 0 {
		t.Fatal("blank text produced chunks")
	}
}

func TestSegments(t *testing.T) {
	if got := Segments("Short text.", 5000); len(got) != 1 {
		t.Fatalf("short text split: %v", got)
	}
	s := "One. Two! Three? Four"
	got := Segments(s, 12)
	if got[0] != "One." {
		t.Fatalf("first segment %q, want cut at last period", got[0])
	}
	if strings.Join(got, "") != s {
		t.Fatalf("segments lose text: %q", got)
	}
	hard := Segments(strings.Repeat("a", 25), 10)
	if len(hard) != 3 || hard[0] != strings.Repeat("a", 10) {
		t.Fatalf("hard cut = %q", hard)
	}
}

func TestSynthesize(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("tl") != "en" || q.Get("client") != "tw-ob" || q.Get("q") == "" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		io.WriteString(w, "ID3["+q.Get("idx")+"]")
	}))
	defer srv.Close()

	dir := t.TempDir()
	blobs, err := storage.NewFSStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(srv.URL, "", blobs)
	clip, err := c.Synthesize(context.Background(), strings.Repeat("hello ", 60))
	if err != nil {
		t.Fatal(err)
	}
	if clip.Chunks != 2 || calls.Load() != 2 {
		t.Fatalf("clip %+v calls %d", clip, calls.Load())
	}
	if !strings.HasPrefix(clip.Key, "audio/") || !strings.HasSuffix(clip.Key, ".mp3") {
		t.Fatalf("key = %q", clip.Key)
	}
	rc, err := blobs.Get(context.Background(), clip.Key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "ID3[0]ID3[1]" {
		t.Fatalf("audio = %q", b)
	}

	if _, err := c.Synthesize(context.Background(), " "); err != ErrEmptyText {
		t.Fatalf("empty text: %v", err)
	}
}

// unlinkedStore keeps blobs but cannot produce URLs for them.
type unlinkedStore struct{ storage.BlobStore }

func (unlinkedStore) URL(string) (string, error) { return "", errors.New("no public url") }

func TestSynthesizeWithoutURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ID3")
	}))
	defer srv.Close()
	fs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(srv.URL, "en", unlinkedStore{fs})
	clip, err := c.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("a missing url should not fail synthesis: %v", err)
	}
	if clip.URL != "" || clip.Key == "" {
		t.Fatalf("clip = %+v", clip)
	}
	if _, err := fs.Get(context.Background(), clip.Key); err != nil {
		t.Fatalf("audio not stored: %v", err)
	}
}

func TestSynthesizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	blobs, _ := storage.NewFSStore(t.TempDir())
	c := NewClient(srv.URL, "en", blobs)
	if _, err := c.ForExplanation(context.Background(), "Some explanation."); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v", err)
	}
}
