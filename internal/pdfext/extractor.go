package pdfext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/courierops/manifest2csv/internal/manifest"
)

// Layout thresholds, in PDF points. A horizontal gap wider than cellGap
// separates two table cells; a gap wider than wordGap but narrower than
// cellGap is a word boundary inside one cell.
const (
	defaultCellGap = 12.0
	defaultWordGap = 1.5
)

// Extractor implements manifest.DocumentExtractor on top of ledongthuc/pdf.
// Column boundaries in these manifests are not reliable, so cells are
// recovered by clustering positioned text on horizontal gaps; the resulting
// rows are ragged and downstream classification is expected to cope.
type Extractor struct {
	maxFileSize int64
	cellGap     float64
	wordGap     float64
}

// NewExtractor creates an extractor with the specified size constraint.
func NewExtractor(maxFileSize int64) *Extractor {
	return &Extractor{
		maxFileSize: maxFileSize,
		cellGap:     defaultCellGap,
		wordGap:     defaultWordGap,
	}
}

// ExtractDocument opens the PDF bytes and yields per-page plain text plus one
// table of cell rows per page. Failure to open or read the document is the
// hard-failure path; a single unreadable page is skipped instead.
func (e *Extractor) ExtractDocument(data []byte) (*manifest.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if int64(len(data)) > e.maxFileSize {
		return nil, fmt.Errorf("document too large: %d bytes (max: %d bytes)", len(data), e.maxFileSize)
	}
	if err := e.validate(data); err != nil {
		return nil, fmt.Errorf("not a readable PDF: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	doc := &manifest.Document{}
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			// Continue with other pages even if one fails.
			continue
		}

		var text strings.Builder
		table := manifest.Table{}
		for _, row := range rows {
			cells := e.cellsFromRow(row)
			if len(cells) == 0 {
				continue
			}
			table.Rows = append(table.Rows, cells)
			text.WriteString(strings.Join(cells, " "))
			text.WriteString("\n")
		}

		doc.Pages = append(doc.Pages, manifest.Page{
			Text:   text.String(),
			Tables: []manifest.Table{table},
		})
	}

	return doc, nil
}

// validate checks that the byte stream is a structurally readable PDF before
// any layout work starts.
func (e *Extractor) validate(data []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return err
	}
	return api.ValidateContext(ctx)
}

// cellsFromRow clusters a row's positioned text fragments into cells. The
// fragments arrive sorted left to right; a wide horizontal gap starts a new
// cell, a narrow one inserts a word space.
func (e *Extractor) cellsFromRow(row *pdf.Row) []string {
	var cells []string
	var current strings.Builder
	prevEnd := 0.0

	flush := func() {
		if cell := strings.TrimSpace(current.String()); cell != "" {
			cells = append(cells, cell)
		}
		current.Reset()
	}

	for i, t := range row.Content {
		if t.S == "" {
			continue
		}
		if i > 0 {
			gap := t.X - prevEnd
			switch {
			case gap > e.cellGap:
				flush()
			case gap > e.wordGap:
				current.WriteString(" ")
			}
		}
		current.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	flush()

	return cells
}
