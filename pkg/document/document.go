// Package document extracts plain text from the file formats the
// ingestion pipeline accepts. The pipeline treats it as an opaque
// text-extraction oracle: bytes in, text plus metadata out.
package document

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// SupportedExtensions lists the formats ProcessFile accepts.
var SupportedExtensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx", ".pptx", ".csv", ".json"}

// FileResult is the outcome of text extraction from one file.
type FileResult struct {
	Success  bool           `json:"success"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Err      string         `json:"error,omitempty"`
}

// Processor extracts text from documents.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a document processor.
func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger}
}

// ProcessFile extracts text from a file given either a path or raw
// bytes. ext overrides the extension derived from path; filename is
// carried into metadata as provenance. Unsupported formats and parse
// errors yield a failure result, never an error.
func (p *Processor) ProcessFile(path string, data []byte, ext, filename string) *FileResult {
	if ext == "" && path != "" {
		ext = filepath.Ext(path)
	}
	ext = strings.ToLower(ext)
	if filename == "" {
		if path != "" {
			filename = filepath.Base(path)
		} else {
			filename = "unknown"
		}
	}

	if ext == "" {
		return p.fail(filename, fmt.Errorf("file extension not provided"))
	}

	if data == nil {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return p.fail(filename, fmt.Errorf("failed to read file: %w", err))
		}
	}

	switch ext {
	case ".txt", ".md":
		return p.processText(data, filename)
	case ".json":
		return p.processJSON(data, filename)
	case ".csv":
		return p.processCSV(data, filename)
	case ".pdf":
		return p.processPDF(data, filename)
	case ".xlsx":
		return p.processXLSX(data, filename)
	case ".docx":
		return p.processDOCX(data, filename)
	case ".pptx":
		return p.processPPTX(data, filename)
	default:
		return p.fail(filename, fmt.Errorf("unsupported file format: %s", ext))
	}
}

func (p *Processor) fail(filename string, err error) *FileResult {
	p.logger.Error("document processing failed", "filename", filename, "error", err)
	return &FileResult{
		Success:  false,
		Text:     "",
		Metadata: map[string]any{},
		Err:      err.Error(),
	}
}

func success(text, format, filename string, extra map[string]any) *FileResult {
	meta := map[string]any{
		"format":          format,
		"filename":        filename,
		"character_count": len(text),
		"word_count":      len(strings.Fields(text)),
	}
	for k, v := range extra {
		meta[k] = v
	}
	return &FileResult{Success: true, Text: text, Metadata: meta}
}

func (p *Processor) processText(data []byte, filename string) *FileResult {
	if !utf8.Valid(data) {
		return p.fail(filename, fmt.Errorf("file is not valid UTF-8 text"))
	}
	return success(string(data), "text", filename, nil)
}

func (p *Processor) processJSON(data []byte, filename string) *FileResult {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return p.fail(filename, fmt.Errorf("invalid JSON: %w", err))
	}
	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return p.fail(filename, err)
	}
	return success(string(pretty), "json", filename, nil)
}

func (p *Processor) processCSV(data []byte, filename string) *FileResult {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return p.fail(filename, fmt.Errorf("invalid CSV: %w", err))
	}

	var b strings.Builder
	columns := 0
	for _, row := range rows {
		if len(row) > columns {
			columns = len(row)
		}
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}

	return success(b.String(), "csv", filename, map[string]any{
		"row_count":    len(rows),
		"column_count": columns,
	})
}
