package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

func (p *Processor) processXLSX(data []byte, filename string) *FileResult {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return p.fail(filename, fmt.Errorf("failed to open XLSX: %w", err))
	}
	defer f.Close()

	var b strings.Builder
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		fmt.Fprintf(&b, "\n--- Sheet: %s ---\n", sheet)
		rows, err := f.GetRows(sheet)
		if err != nil {
			p.logger.Warn("failed to read sheet", "filename", filename, "sheet", sheet, "error", err)
			continue
		}
		for _, row := range rows {
			b.WriteString(strings.Join(row, " | "))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return success(b.String(), "xlsx", filename, map[string]any{
		"sheet_count": len(sheets),
	})
}
