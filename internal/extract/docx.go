package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DOCX reads body paragraphs followed by table rows, one row per line with
// cells separated by " | ".
type DOCX struct{}

func (DOCX) Extract(_ context.Context, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("not a docx file: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return parseDocument(rc)
	}
	return "", errors.New("word/document.xml missing")
}

func parseDocument(r io.Reader) (string, error) {
	var (
		paragraphs []string
		rows       []string
		row        []string
		cell       []string
		para       strings.Builder
		inPara     bool
		tblDepth   int
	)
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tr":
				if tblDepth == 1 {
					row = row[:0]
				}
			case "tc":
				if tblDepth == 1 {
					cell = cell[:0]
				}
			case "p":
				inPara = true
				para.Reset()
			case "tab":
				if inPara {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					para.WriteByte('\n')
				}
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return "", err
				}
				if inPara {
					para.WriteString(s)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				inPara = false
				if tblDepth == 0 {
					paragraphs = append(paragraphs, para.String())
				} else {
					cell = append(cell, para.String())
				}
			case "tc":
				if tblDepth == 1 {
					row = append(row, strings.Join(cell, "\n"))
				}
			case "tr":
				if tblDepth == 1 {
					rows = append(rows, strings.Join(row, " | "))
				}
			case "tbl":
				tblDepth--
			}
		}
	}
	return strings.Join(append(paragraphs, rows...), "\n"), nil
}
