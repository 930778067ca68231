package document

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

func (p *Processor) processPDF(data []byte, filename string) *FileResult {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return p.fail(filename, fmt.Errorf("failed to open PDF: %w", err))
	}

	var b bytes.Buffer
	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i)
		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("failed to extract PDF page text", "filename", filename, "page", i, "error", err)
			continue
		}
		b.WriteString(text)
	}

	return success(b.String(), "pdf", filename, map[string]any{
		"page_count": pageCount,
	})
}
