package extract

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// TextFromPDF pulls the embedded text layer out of every page of a PDF.
// Scanned image-only documents legitimately produce an empty string, which
// callers treat as "no usable text" rather than an error.
func TextFromPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	var builder strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", page, err)
		}
		builder.WriteString(text)
	}

	return builder.String(), nil
}
