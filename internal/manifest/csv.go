package manifest

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
)

// Writer serializes records to the fixed 16-column CSV layout. It is
// streaming-friendly: the header goes out once, then each record can be
// written and flushed independently as the parser produces it.
type Writer struct {
	out         *gocsv.SafeCSVWriter
	wroteHeader bool
}

// NewWriter creates a CSV writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: gocsv.NewSafeCSVWriter(csv.NewWriter(w))}
}

// Write normalizes and serializes a single record. Records without a
// consignment number are silently skipped; the header is emitted on first
// use if WriteHeader was never called.
func (w *Writer) Write(rec *Record) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	norm := normalizeRecord(rec)
	if norm.ConsignmentNumber == "" {
		return nil
	}
	return gocsv.MarshalCSVWithoutHeaders(&[]*Record{norm}, w.out)
}

// WriteHeader emits the column header row. Calling it more than once is a
// no-op.
func (w *Writer) WriteHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	return gocsv.MarshalCSV(&[]*Record{}, w.out)
}

// WriteAll serializes a full record slice.
func (w *Writer) WriteAll(recs []*Record) error {
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	w.out.Flush()
	return w.out.Error()
}

// normalizeRecord applies the final output guards on a copy of rec: Pay and
// Enhancement to fixed two decimals (idempotent when already normalized),
// Items forced to "1" on collections regardless of what upstream computed,
// Date converted to ISO when parseable.
func normalizeRecord(rec *Record) *Record {
	out := *rec

	if out.Pay != "" {
		if amount, _ := ExtractAmount(out.Pay); amount != "" {
			out.Pay = amount
		}
	}
	if out.Enhancement != "" {
		if amount, _ := ExtractAmount(out.Enhancement); amount != "" {
			out.Enhancement = amount
		}
	}
	if out.Type == TypeCollection {
		out.Items = "1"
	}
	if out.Date != "" {
		out.Date = ToISODate(out.Date)
	}

	return &out
}
