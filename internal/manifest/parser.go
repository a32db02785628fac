package manifest

import "fmt"

// Parser runs the full manifest pipeline: pages to page context, tables to
// rows, rows through the rule table, deferred collections through the ledger,
// surviving records out to the caller. All mutable state (context carry, the
// ledger) lives inside a single Parse invocation, so one Parser may be shared
// across documents.
type Parser struct {
	extractor  DocumentExtractor
	classifier *Classifier
}

// NewParser creates a parser on top of the given extraction collaborator.
func NewParser(extractor DocumentExtractor) *Parser {
	return &Parser{
		extractor:  extractor,
		classifier: NewClassifier(),
	}
}

// Parse converts one PDF document into its output records, in emission order.
func (p *Parser) Parse(data []byte) ([]*Record, error) {
	var out []*Record
	err := p.ParseStream(data, func(r *Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseStream is the streaming form of Parse: emit is called for each record
// as it becomes available, so resolved records can be serialized before the
// document is fully read. Pending records resolved mid-stream are emitted
// before the row that triggered their resolution. Only a document that cannot
// be opened or read is an error; unrecognizable rows and unparsable fields
// degrade silently.
func (p *Parser) ParseStream(data []byte, emit func(*Record) error) error {
	doc, err := p.extractor.ExtractDocument(data)
	if err != nil {
		return fmt.Errorf("extract document: %w", err)
	}

	ledger := NewLedger()
	ctx := PageContext{}
	location := "Unknown"

	for i, page := range doc.Pages {
		ctx = ResolvePageContext(page.Text, ctx)
		if i == 0 {
			if loc := ExtractLocation(page.Text); loc != "" {
				location = loc
			}
		}

		for _, table := range page.Tables {
			for _, row := range table.Rows {
				if err := p.processRow(row, ctx, location, ledger, emit); err != nil {
					return err
				}
			}
		}
	}

	// End of stream: whatever the ledger still holds gets the document-wide
	// fallback date.
	for _, rec := range ledger.Flush() {
		if err := emitRecord(rec, emit); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) processRow(row []string, ctx PageContext, location string, ledger *Ledger, emit func(*Record) error) error {
	cls := p.classifier.Classify(row, ctx.Section)

	switch cls.Kind {
	case KindHeaderSkip, KindDiscard:
		return nil

	case KindStopRateDeferred, KindCollectionDeferred:
		stampContext(cls.Record, ctx, location)
		ledger.Defer(cls.Record, cls.Key)
		return nil

	case KindDelivery:
		ledger.ObserveDate(cls.Date)
		stampContext(cls.Record, ctx, location)
		return emitRecord(cls.Record, emit)

	case KindCollectionDated:
		// Resolve-before-current: records waiting on this postcode go out
		// ahead of the row that supplied their date.
		for _, rec := range ledger.Resolve(cls.Key, cls.Date) {
			if err := emitRecord(rec, emit); err != nil {
				return err
			}
		}
		ledger.ObserveDate(cls.Date)
		stampContext(cls.Record, ctx, location)
		return emitRecord(cls.Record, emit)
	}
	return nil
}

// emitRecord hands a record to the caller, dropping rows that never resolved
// an identifying consignment number.
func emitRecord(rec *Record, emit func(*Record) error) error {
	if rec.ConsignmentNumber == "" {
		return nil
	}
	return emit(rec)
}

func stampContext(rec *Record, ctx PageContext, location string) {
	rec.Location = location
	rec.DriverName = ctx.DriverName
	rec.DriverID = ctx.DriverID
}
