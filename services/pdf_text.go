package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"studymate-platform/internal/logger"
)

// ExtractNativePDFText pulls the embedded text layer out of a PDF
// without contacting the extraction backend. PDFs produced from word
// processors usually carry a complete text layer, so this is tried
// before falling back to OCR. Scanned PDFs have no text layer and
// return an error here.
func ExtractNativePDFText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Debug("failed to read PDF text layer", "page", i, "error", err)
			continue
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(strings.TrimSpace(text))
	}

	extracted := strings.TrimSpace(textBuilder.String())
	if len(extracted) < 32 {
		return "", fmt.Errorf("PDF has no usable text layer")
	}
	return extracted, nil
}
