package library

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls plain text out of an uploaded PDF payload.
// Extraction failure is non-fatal to the add-book flow: the embedded PDF
// payload alone is enough to view the book.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// PDFExtractor reads the embedded text layer of a PDF.
type PDFExtractor struct{}

// ExtractText concatenates the text of every readable page.
func (PDFExtractor) ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text extracted from pdf")
	}
	return sb.String(), nil
}

// pdfDataURL embeds the raw PDF bytes as a data URI.
func pdfDataURL(data []byte) string {
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data)
}
