package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor feeds a canned document into the parser.
type stubExtractor struct {
	doc *Document
	err error
}

func (s *stubExtractor) ExtractDocument([]byte) (*Document, error) {
	return s.doc, s.err
}

func docFromRows(pageText string, rows ...[]string) *Document {
	return &Document{Pages: []Page{{
		Text:   pageText,
		Tables: []Table{{Rows: rows}},
	}}}
}

func TestParseExtractionFailureIsHard(t *testing.T) {
	p := NewParser(&stubExtractor{err: errors.New("broken xref")})

	records, err := p.Parse([]byte("not a pdf"))
	require.Error(t, err)
	assert.Nil(t, records)
}

func TestParseDeliveryPage(t *testing.T) {
	doc := docFromRows(
		"Location: Leeds\nDelivered By: John Smith (4471)",
		[]string{"Status", "Consignment Number", "Postcode"},
		[]string{"Delivered", "1234567890", "LS29AB", "NextDay", "02/03/2024", "Small", "1", "£3.20", "£0.00"},
	)
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, TypeDelivery, rec.Type)
	assert.Equal(t, "1234567890", rec.ConsignmentNumber)
	assert.Equal(t, "3.20", rec.Pay)
	assert.Equal(t, "0.00", rec.Enhancement)
	assert.Equal(t, "1", rec.Items)
	assert.Equal(t, "Leeds", rec.Location)
	assert.Equal(t, "John Smith", rec.DriverName)
	assert.Equal(t, "4471", rec.DriverID)
}

func TestParseSectionInheritsAcrossPages(t *testing.T) {
	doc := &Document{Pages: []Page{
		{
			Text: "Location: Leeds\nCollected By: Jane Doe (882)",
			Tables: []Table{{Rows: [][]string{
				{"C123456", "Leeds Hub", "LS1 4AP", "9876543210", "01/03/2024", "Small £2.50"},
			}}},
		},
		{
			// No header restated: section and driver carry forward.
			Text: "",
			Tables: []Table{{Rows: [][]string{
				{"C123457", "York Hub", "YO1 7LL", "9876543211", "02/03/2024", "Small £2.60"},
			}}},
		},
	}}
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, TypeCollection, records[1].Type)
	assert.Equal(t, "Jane Doe", records[1].DriverName)
	assert.Equal(t, "Leeds", records[1].Location)
}

func TestParseDeferredResolvedByLaterMatchingRow(t *testing.T) {
	doc := docFromRows(
		"Collected By: Jane Doe (882)",
		[]string{"L798133", "Corner Shop", "Stop Rate £2.11", "LS1 4AP"},
		[]string{"C123456", "Leeds Hub", "LS1 4AP", "9876543210", "01/03/2024", "Small £2.50"},
	)
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Resolve-before-current: the Stop Rate record goes out first, stamped
	// with the resolving row's date.
	assert.Equal(t, StopRate, records[0].ConsignmentNumber)
	assert.Equal(t, "01/03/2024", records[0].Date)
	assert.Equal(t, "9876543210", records[1].ConsignmentNumber)
}

func TestParseDeferredNotResolvedByEarlierRow(t *testing.T) {
	// The resolving row comes first; the Stop Rate row after it must wait
	// for the end-of-document fallback, not borrow from the past.
	doc := docFromRows(
		"Collected By: Jane Doe (882)",
		[]string{"C123456", "Leeds Hub", "LS1 4AP", "9876543210", "01/03/2024", "Small £2.50"},
		[]string{"L798133", "Corner Shop", "Stop Rate £2.11", "LS1 4AP"},
		[]string{"C123457", "York Hub", "YO1 7LL", "9876543211", "02/03/2024", "Small £2.60"},
	)
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Emitted last, via flush; fallback is the most common date. With one
	// occurrence each, first-seen wins.
	last := records[2]
	assert.Equal(t, StopRate, last.ConsignmentNumber)
	assert.Equal(t, "01/03/2024", last.Date)
}

func TestParseFallbackUsesMostFrequentDate(t *testing.T) {
	doc := docFromRows(
		"Collected By: Jane Doe (882)",
		[]string{"L798133", "Corner Shop", "Stop Rate £2.11"},
		[]string{"C123456", "Leeds Hub", "LS1 4AP", "9876543210", "05/03/2024", "Small £2.50"},
		[]string{"C123457", "Leeds Hub", "LS1 4AP", "9876543211", "05/03/2024", "Small £2.50"},
		[]string{"C123458", "York Hub", "YO1 7LL", "9876543212", "06/03/2024", "Small £2.60"},
	)
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	require.Len(t, records, 4)

	// The Stop Rate row had no postcode, so no dated row ever matched its
	// key; the document-wide fallback [A, A, B] -> A applies.
	last := records[3]
	assert.Equal(t, StopRate, last.ConsignmentNumber)
	assert.Equal(t, "05/03/2024", last.Date)
}

func TestParseDeferredHeuristicRowSurvivesEmission(t *testing.T) {
	// A dateless collection with neither a consignment token nor a postcode
	// still comes out the other end: sentinel consignment, fallback date.
	doc := docFromRows(
		"Collected By: Jane Doe (882)",
		[]string{"L798133", "Corner Shop", "£2.75"},
		[]string{"C123456", "Leeds Hub", "LS1 4AP", "9876543210", "01/03/2024", "Small £2.50"},
	)
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "9876543210", records[0].ConsignmentNumber)

	deferred := records[1]
	assert.Equal(t, StopRate, deferred.ConsignmentNumber)
	assert.Equal(t, TypeCollection, deferred.Type)
	assert.Equal(t, "2.75", deferred.Pay)
	assert.Equal(t, "01/03/2024", deferred.Date)
}

func TestParseOrphanWithNoDatedRows(t *testing.T) {
	doc := docFromRows(
		"Collected By: Jane Doe (882)",
		[]string{"L798133", "Corner Shop", "Stop Rate £2.11", "LS1 4AP"},
	)
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Date)
}

func TestParseDropsRowsWithoutConsignment(t *testing.T) {
	doc := docFromRows(
		"Collected By: Jane Doe (882)",
		[]string{"Leeds Hub", "LS1 4AP", "01/03/2024", "Small £2.50"},
	)
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseHeaderRowsProduceNothing(t *testing.T) {
	doc := docFromRows(
		"Delivered By: John Smith (4471)",
		[]string{"Status", "Consignment Number", "Postcode", "Service", "Date"},
		[]string{"Account", "Collected From", "Collection Postcode"},
	)
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseStreamEmitsInOrder(t *testing.T) {
	doc := docFromRows(
		"Collected By: Jane Doe (882)",
		[]string{"L798133", "Corner Shop", "Stop Rate £2.11", "LS1 4AP"},
		[]string{"C123456", "Leeds Hub", "LS1 4AP", "9876543210", "01/03/2024", "Small £2.50"},
	)
	p := NewParser(&stubExtractor{doc: doc})

	var consignments []string
	err := p.ParseStream(nil, func(r *Record) error {
		consignments = append(consignments, r.ConsignmentNumber)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{StopRate, "9876543210"}, consignments)
}

func TestParseStreamEmitErrorStopsParse(t *testing.T) {
	doc := docFromRows(
		"Delivered By: John Smith (4471)",
		[]string{"Delivered", "1234567890", "LS2 9AB", "NextDay", "02/03/2024", "Small", "1", "£3.20", ""},
	)
	p := NewParser(&stubExtractor{doc: doc})

	sentinel := errors.New("sink closed")
	err := p.ParseStream(nil, func(*Record) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestParseLocationDefaultsToUnknown(t *testing.T) {
	doc := docFromRows(
		"Delivered By: John Smith (4471)",
		[]string{"Delivered", "1234567890", "LS2 9AB", "NextDay", "02/03/2024", "Small", "1", "£3.20", ""},
	)
	p := NewParser(&stubExtractor{doc: doc})

	records, err := p.Parse(nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Unknown", records[0].Location)
}
