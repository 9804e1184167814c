// Package extract turns uploaded documents into plain text.
package extract

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Extractor reads a whole document and returns its text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, r io.Reader) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, r io.Reader) (string, error) { return f(ctx, r) }

// EncryptedMessage is shown in place of text for password-protected PDFs.
const EncryptedMessage = "This PDF is encrypted and requires a password for text extraction."

var ErrEncrypted = errors.New("pdf is encrypted")

// errorPrefix starts every failure rendered as text.
const errorPrefix = "Error"

// ErrorText renders an extraction failure the way it is shown to users.
func ErrorText(err error) string {
	if errors.Is(err, ErrEncrypted) {
		return EncryptedMessage
	}
	return errorPrefix + " extracting text: " + err.Error()
}

// IsErrorText reports whether s is a failure rendered by ErrorText rather
// than document content.
func IsErrorText(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), errorPrefix) || s == EncryptedMessage
}
