package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
	ExtTXT  = ".txt"

	docxBodyPart = "word/document.xml"
)

// SupportedExtensions lists the extensions the extractor understands.
var SupportedExtensions = []string{ExtPDF, ExtDOCX, ExtTXT}

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// TextExtractor turns resume files into raw text.
type TextExtractor struct {
	// MaxPages bounds how many PDF pages are read. Zero reads every page.
	MaxPages int
}

// NewTextExtractor returns an extractor reading at most maxPages PDF pages.
func NewTextExtractor(maxPages int) *TextExtractor {
	if maxPages < 0 {
		maxPages = 0
	}
	return &TextExtractor{MaxPages: maxPages}
}

// Supported reports whether the extension of path can be extracted.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Extract reads the file at path and returns its text.
func (e *TextExtractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return "", newError(path, KindUnsupportedFormat, fmt.Errorf("extension %q", ext))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", newError(path, KindNotFound, err)
		}
		return "", newError(path, KindUnreadable, err)
	}

	return e.ExtractBytes(path, data, ext)
}

// ExtractBytes extracts text from data using the declared extension.
// name is only used for error reporting. Whitespace-only output is a KindEmpty error.
func (e *TextExtractor) ExtractBytes(name string, data []byte, ext string) (string, error) {
	text, err := e.extractBytes(name, data, ext)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", newError(name, KindEmpty, nil)
	}
	return text, nil
}

func (e *TextExtractor) extractBytes(name string, data []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ExtPDF:
		return e.extractPDF(name, data)
	case ExtDOCX:
		return extractDOCX(name, data)
	case ExtTXT:
		return decodeText(data), nil
	default:
		return "", newError(name, KindUnsupportedFormat, fmt.Errorf("extension %q", ext))
	}
}

func (e *TextExtractor) extractPDF(name string, data []byte) (text string, err error) {
	if !filetype.Is(data, "pdf") {
		return "", newError(name, KindCorrupt, errors.New("content is not a pdf document"))
	}

	// The pdf package panics on some malformed cross reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = newError(name, KindCorrupt, fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) || strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return "", newError(name, KindEncrypted, err)
		}
		return "", newError(name, KindCorrupt, err)
	}

	pages := reader.NumPage()
	if e.MaxPages > 0 && pages > e.MaxPages {
		pages = e.MaxPages
	}

	var builder strings.Builder
	var lastErr error
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			lastErr = fmt.Errorf("page %d: %w", i, err)
			continue
		}

		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(content)
	}

	if builder.Len() == 0 && lastErr != nil {
		return "", newError(name, KindCorrupt, lastErr)
	}

	return builder.String(), nil
}

func extractDOCX(name string, data []byte) (string, error) {
	if !filetype.Is(data, "docx") && !filetype.Is(data, "zip") {
		return "", newError(name, KindCorrupt, errors.New("content is not a docx archive"))
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", newError(name, KindCorrupt, err)
	}

	for _, f := range archive.File {
		if f.Name != docxBodyPart {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", newError(name, KindCorrupt, err)
		}
		defer rc.Close()

		text, err := paragraphs(rc)
		if err != nil {
			return "", newError(name, KindCorrupt, err)
		}
		return text, nil
	}

	return "", newError(name, KindCorrupt, fmt.Errorf("%s not found in archive", docxBodyPart))
}

// paragraphs walks a WordprocessingML body and joins its paragraphs with newlines.
func paragraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		lines  []string
		line   strings.Builder
		inText bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", docxBodyPart, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteString("\t")
			case "br", "cr":
				line.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				lines = append(lines, line.String())
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}

	if line.Len() > 0 {
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n"), nil
}

// decodeText never fails: a UTF-16 BOM selects UTF-16, otherwise invalid UTF-8 is dropped.
func decodeText(data []byte) string {
	if bytes.HasPrefix(data, utf16LEBOM) || bytes.HasPrefix(data, utf16BEBOM) {
		decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		if decoded, _, err := transform.Bytes(decoder, data); err == nil {
			data = decoded
		}
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "")
}
