package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-tutor/internal/storage"
)

const docXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Photosynthesis</w:t></w:r><w:r><w:t xml:space="preserve"> happens in leaves.</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Input</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Output</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Light</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Sugar</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDOCXParagraphsThenTables(t *testing.T) {
	got, err := DOCX{}.Extract(context.Background(), bytes.NewReader(buildDOCX(t, docXML)))
	if err != nil {
		t.Fatal(err)
	}
	want := "Photosynthesis happens in leaves.\nSecond\tparagraph.\nInput | Output\nLight | Sugar"
	if got != want {
		t.Fatalf("got\n%q\nwant\n%q", got, want)
	}
}

func TestDOCXRejectsNonZip(t *testing.T) {
	if _, err := (DOCX{}).Extract(context.Background(), strings.NewReader("plain text")); err == nil {
		t.Fatal("expected error")
	}
}

func TestErrorText(t *testing.T) {
	s := ErrorText(errors.New("boom"))
	if s != "Error extracting text: boom" || !IsErrorText(s) {
		t.Fatalf("ErrorText = %q", s)
	}
	if enc := ErrorText(fmt.Errorf("open: %w", ErrEncrypted)); enc != EncryptedMessage || !IsErrorText(enc) {
		t.Fatalf("encrypted = %q", enc)
	}
	if IsErrorText("Photosynthesis happens in leaves.") {
		t.Fatal("content is not an error")
	}
}

func TestTesseractMissingBinary(t *testing.T) {
	t.Setenv("PATH", "")
	_, err := NewTesseract("eng").Extract(context.Background(), strings.NewReader("img"))
	if err == nil || !strings.Contains(err.Error(), "tesseract") {
		t.Fatalf("want missing-binary error, got %v", err)
	}
}

func newTestManager(t *testing.T, image Extractor) (*Manager, *storage.FSStore) {
	t.Helper()
	fs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewManager(fs, image, NewPDF(), DOCX{}), fs
}

func TestManagerUnsupportedType(t *testing.T) {
	m, _ := newTestManager(t, nil)
	up, err := m.Process(context.Background(), "notes.TXT", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if up.OK() || up.Error != "Unsupported file type: .txt" || up.SavedKey != "" {
		t.Fatalf("unexpected upload %+v", up)
	}
}

func TestManagerStoresAndExtracts(t *testing.T) {
	ocr := ExtractorFunc(func(_ context.Context, r io.Reader) (string, error) {
		b, _ := io.ReadAll(r)
		return "scanned:" + string(b), nil
	})
	m, fs := newTestManager(t, ocr)
	up, err := m.Process(context.Background(), "board.JPEG", strings.NewReader("pixels"))
	if err != nil {
		t.Fatal(err)
	}
	if !up.OK() || up.FileType != "image" || up.Text != "scanned:pixels" {
		t.Fatalf("unexpected upload %+v", up)
	}
	if !strings.HasPrefix(up.SavedKey, "uploads/image/") || !strings.HasSuffix(up.SavedKey, ".jpeg") {
		t.Fatalf("saved key = %q", up.SavedKey)
	}
	rc, err := fs.Get(context.Background(), up.SavedKey)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if b, _ := io.ReadAll(rc); string(b) != "pixels" {
		t.Fatalf("stored %q", b)
	}

	docx, err := m.Process(context.Background(), "lesson.docx", bytes.NewReader(buildDOCX(t, docXML)))
	if err != nil || !strings.HasPrefix(docx.Text, "Photosynthesis") {
		t.Fatalf("docx upload %+v, %v", docx, err)
	}
}

func TestManagerExtractionFailureIsText(t *testing.T) {
	failing := ExtractorFunc(func(context.Context, io.Reader) (string, error) {
		return "", errors.New("unreadable image")
	})
	m, _ := newTestManager(t, failing)
	up, err := m.Process(context.Background(), "a.png", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if up.OK() || !IsErrorText(up.Text) || up.Text != "Error extracting text: unreadable image" {
		t.Fatalf("unexpected upload %+v", up)
	}
}
