package document

// DOCX and PPTX are both OOXML zip containers; their text lives in
// well-known XML members, so no third-party library is needed beyond
// archive/zip and encoding/xml.

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

func readZipMember(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// word/document.xml structure, just the text-bearing parts.
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paras  []docxPara  `xml:"p"`
	Tables []docxTable `xml:"tbl"`
}

type docxPara struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

type docxTable struct {
	Rows []docxTableRow `xml:"tr"`
}

type docxTableRow struct {
	Cells []docxTableCell `xml:"tc"`
}

type docxTableCell struct {
	Paras []docxPara `xml:"p"`
}

func paraText(para docxPara) string {
	var b strings.Builder
	for _, run := range para.Runs {
		for _, t := range run.Texts {
			b.WriteString(t)
		}
	}
	return b.String()
}

func (p *Processor) processDOCX(data []byte, filename string) *FileResult {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return p.fail(filename, fmt.Errorf("failed to open DOCX: %w", err))
	}

	docXML, err := readZipMember(zr, "word/document.xml")
	if err != nil {
		return p.fail(filename, fmt.Errorf("invalid DOCX: %w", err))
	}

	var doc docxDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return p.fail(filename, fmt.Errorf("failed to parse DOCX XML: %w", err))
	}

	var b strings.Builder
	for _, para := range doc.Body.Paras {
		b.WriteString(paraText(para))
		b.WriteString("\n")
	}
	for _, table := range doc.Body.Tables {
		b.WriteString("\n--- Table ---\n")
		for _, row := range table.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				var cellText strings.Builder
				for _, para := range cell.Paras {
					cellText.WriteString(paraText(para))
				}
				cells = append(cells, cellText.String())
			}
			b.WriteString(strings.Join(cells, " | "))
			b.WriteString("\n")
		}
	}

	return success(b.String(), "docx", filename, map[string]any{
		"paragraph_count": len(doc.Body.Paras),
		"table_count":     len(doc.Body.Tables),
	})
}

// ppt/slides/slideN.xml structure, text runs only.
type pptxSlide struct {
	CSld struct {
		SpTree struct {
			Shapes []pptxShape `xml:"sp"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

type pptxShape struct {
	TxBody *struct {
		Paras []pptxPara `xml:"p"`
	} `xml:"txBody"`
}

type pptxPara struct {
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

func (p *Processor) processPPTX(data []byte, filename string) *FileResult {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return p.fail(filename, fmt.Errorf("failed to open PPTX: %w", err))
	}

	type slideFile struct {
		num  int
		name string
	}
	var slides []slideFile
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			var num int
			fmt.Sscanf(strings.TrimSuffix(strings.TrimPrefix(f.Name, "ppt/slides/slide"), ".xml"), "%d", &num)
			if num > 0 {
				slides = append(slides, slideFile{num: num, name: f.Name})
			}
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var b strings.Builder
	for _, sf := range slides {
		data, err := readZipMember(zr, sf.name)
		if err != nil {
			continue
		}
		var slide pptxSlide
		if err := xml.Unmarshal(data, &slide); err != nil {
			p.logger.Warn("failed to parse slide", "filename", filename, "slide", sf.num, "error", err)
			continue
		}

		fmt.Fprintf(&b, "\n--- Slide %d ---\n", sf.num)
		for _, shape := range slide.CSld.SpTree.Shapes {
			if shape.TxBody == nil {
				continue
			}
			for _, para := range shape.TxBody.Paras {
				var line strings.Builder
				for _, run := range para.Runs {
					line.WriteString(run.Text)
				}
				if t := strings.TrimSpace(line.String()); t != "" {
					b.WriteString(t)
					b.WriteString("\n")
				}
			}
		}
	}

	return success(b.String(), "pptx", filename, map[string]any{
		"slide_count": len(slides),
	})
}
