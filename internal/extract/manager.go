package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-tutor/internal/storage"
)

// Upload describes one processed file. Error is set, and Text holds the
// rendered failure, when the file could not be read.
type Upload struct {
	OriginalFilename string `json:"original_filename"`
	SavedKey         string `json:"saved_key,omitempty"`
	FileType         string `json:"file_type"`
	Text             string `json:"extracted_text,omitempty"`
	Error            string `json:"error,omitempty"`
}

func (u Upload) OK() bool { return u.Error == "" }

type handler struct {
	fileType  string
	extractor Extractor
}

// Manager stores uploaded originals and routes them to an extractor by
// file extension.
type Manager struct {
	blobs    storage.BlobStore
	handlers map[string]handler
}

func NewManager(blobs storage.BlobStore, image, pdf, docx Extractor) *Manager {
	return &Manager{
		blobs: blobs,
		handlers: map[string]handler{
			".jpg":  {"image", image},
			".jpeg": {"image", image},
			".png":  {"image", image},
			".pdf":  {"pdf", pdf},
			".docx": {"docx", docx},
		},
	}
}

// Process saves r under a fresh name and extracts its text. The returned
// error is reserved for storage failures; unsupported types and extraction
// failures are reported on the Upload.
func (m *Manager) Process(ctx context.Context, filename string, r io.Reader) (Upload, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	up := Upload{
		OriginalFilename: filename,
		FileType:         strings.TrimPrefix(ext, "."),
	}
	h, ok := m.handlers[ext]
	if !ok {
		up.Error = fmt.Sprintf("Unsupported file type: %s", ext)
		return up, nil
	}
	up.FileType = h.fileType

	data, err := io.ReadAll(r)
	if err != nil {
		return up, fmt.Errorf("read upload: %w", err)
	}
	key := fmt.Sprintf("uploads/%s/%s%s", h.fileType, strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	if up.SavedKey, err = m.blobs.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return up, fmt.Errorf("store upload: %w", err)
	}

	text, err := h.extractor.Extract(ctx, bytes.NewReader(data))
	if err != nil {
		log.Printf("extract %s (%s): %v", filename, up.SavedKey, err)
		up.Text = ErrorText(err)
		up.Error = up.Text
		return up, nil
	}
	up.Text = text
	return up, nil
}
