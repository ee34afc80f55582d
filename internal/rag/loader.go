// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package rag

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Supported upload extensions.
const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
	ExtDOC  = ".doc"
	ExtTXT  = ".txt"
)

// UploadedFile is one file from a multipart upload.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// Ext returns the lowercased extension, including the dot.
func (f UploadedFile) Ext() string {
	return strings.ToLower(filepath.Ext(f.Filename))
}

// Page is one logical unit of loaded text. PDFs yield one Page per page,
// everything else a single Page.
type Page struct {
	Content  string
	Metadata map[string]interface{}
}

// LoadFile extracts text from f according to its extension.
func LoadFile(f UploadedFile) ([]Page, error) {
	switch f.Ext() {
	case ExtPDF:
		return loadPDF(f)
	case ExtDOCX, ExtDOC:
		return loadDOCX(f)
	case ExtTXT:
		return loadText(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, f.Filename)
	}
}

// loadPDF reads the plain text of every page. Page numbers in metadata are
// zero-based.
func loadPDF(f UploadedFile) (pages []Page, err error) {
	// ledongthuc/pdf panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to parse PDF %s: %v", f.Filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", f.Filename, err)
	}

	total := reader.NumPage()
	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d of %s: %w", i, f.Filename, err)
		}
		pages = append(pages, Page{
			Content: text,
			Metadata: map[string]interface{}{
				"source": f.Filename,
				"page":   i - 1,
			},
		})
	}
	return pages, nil
}

// loadDOCX extracts paragraph text from word/document.xml. A legacy binary
// .doc is not a zip archive and fails with ErrLegacyDoc.
func loadDOCX(f UploadedFile) ([]Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		if f.Ext() == ExtDOC {
			return nil, fmt.Errorf("%s: %w", f.Filename, ErrLegacyDoc)
		}
		return nil, fmt.Errorf("failed to open DOCX %s: %w", f.Filename, err)
	}

	var body *zip.File
	for _, zf := range zr.File {
		if zf.Name == "word/document.xml" {
			body = zf
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("failed to open DOCX %s: word/document.xml not found", f.Filename)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX %s: %w", f.Filename, err)
	}
	defer func() { _ = rc.Close() }()

	text, err := docxText(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read DOCX %s: %w", f.Filename, err)
	}
	return []Page{{Content: text, Metadata: map[string]interface{}{"source": f.Filename}}}, nil
}

// docxText walks WordprocessingML and returns paragraph text joined by
// newlines. Tabs and breaks inside a run are kept.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
		inPara     bool
	)

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
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara {
					paragraphs = append(paragraphs, current.String())
				}
				inPara = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// loadText reads f as UTF-8. Other encodings are rejected.
func loadText(f UploadedFile) ([]Page, error) {
	if !utf8.Valid(f.Data) {
		return nil, fmt.Errorf("failed to load %s: %w", f.Filename, ErrInvalidEncoding)
	}
	return []Page{{Content: string(f.Data), Metadata: map[string]interface{}{"source": f.Filename}}}, nil
}
