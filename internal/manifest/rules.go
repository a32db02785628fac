package manifest

import "strings"

// RowKind identifies which classification rule claimed a row.
type RowKind int

const (
	KindDiscard RowKind = iota
	KindHeaderSkip
	KindStopRateDeferred
	KindDelivery
	KindCollectionDated
	KindCollectionDeferred
)

// Classification is the outcome of running the rule table against one row.
type Classification struct {
	Kind   RowKind
	Record *Record // nil for HeaderSkip and Discard
	Key    string  // ledger grouping key: defer target for deferred kinds, resolve key for dated collections
	Date   string  // date carried by the row, "" for deferred kinds
}

// rule is one named predicate-then-mapper pair. Rules are evaluated in order
// and the first match wins; the ordering is load-bearing (a dateless row must
// be considered as a deferred collection before any date-based branch, and
// the fixed-shape delivery check runs before the more permissive collection
// check).
type rule struct {
	name  string
	match func(cells []string, sec Section) bool
	build func(cells []string) Classification
}

// Classifier maps raw rows to classifications using the ordered rule table.
type Classifier struct {
	rules []rule
}

// NewClassifier builds the standard rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: []rule{
		{name: "header-skip", match: matchHeader, build: buildHeader},
		{name: "stop-rate-deferred", match: matchStopRate, build: buildDeferredCollection},
		{name: "delivery", match: matchDelivery, build: buildDelivery},
		{name: "collection-dated", match: matchCollectionDated, build: buildCollectionDated},
		{name: "collection-deferred", match: matchCollectionDeferred, build: buildDeferredCollection},
	}}
}

// Classify runs the row through the rule table. Rows matching nothing come
// back as KindDiscard, which is routine with heuristic table extraction.
func (c *Classifier) Classify(row []string, sec Section) Classification {
	cells := trimCells(row)
	if len(cells) == 0 {
		return Classification{Kind: KindDiscard}
	}
	for _, r := range c.rules {
		if r.match(cells, sec) {
			return r.build(cells)
		}
	}
	return Classification{Kind: KindDiscard}
}

func trimCells(row []string) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// --- header / noise ---

func matchHeader(cells []string, _ Section) bool {
	joined := strings.Join(cells, " ")
	if strings.Contains(cells[0], "Status") {
		return true
	}
	if strings.Contains(joined, "Consign") {
		return true
	}
	return strings.Contains(joined, "Account") && strings.Contains(joined, "Collected")
}

func buildHeader([]string) Classification {
	return Classification{Kind: KindHeaderSkip}
}

// --- stop-rate surcharge (dateless) ---

func matchStopRate(cells []string, sec Section) bool {
	if sec == SectionDelivery {
		return false
	}
	return containsStopRate(cells) && !hasDate(cells)
}

// --- delivery (dated, fixed 9-field shape) ---

// deliveryFieldCount is the positional shape of a delivery row:
// Status, Consignment, Postcode, Service, Date, Size, Items, Paid, Enhancement.
const deliveryFieldCount = 9

const deliveryDateIndex = 4

func matchDelivery(cells []string, sec Section) bool {
	if sec == SectionCollection {
		return false
	}
	if !hasDate(cells) {
		return false
	}
	// The date must sit in its positional slot once the row is squared to
	// nine fields; anything else is not a delivery row.
	return RecognizeDate(padRow(cells, deliveryFieldCount)[deliveryDateIndex])
}

func buildDelivery(cells []string) Classification {
	c9 := padRow(cells, deliveryFieldCount)

	pay, paidRemainder := ExtractAmount(c9[7])
	sizeAmount, size := ExtractAmount(c9[5])
	if pay == "" {
		// An amount embedded in the Size cell only stands in when the Paid
		// cell supplied nothing.
		pay = sizeAmount
	}

	items := "1" // every delivery carries at least one item
	switch {
	case isPositiveInt(c9[6]):
		items = strings.TrimSpace(c9[6])
	case isPositiveInt(paidRemainder):
		// Merged "1 £2.09" artifact: the integer left after stripping the
		// money token out of the Paid cell is the item count.
		items = paidRemainder
	}

	enhancement, _ := ExtractAmount(c9[8])

	rec := &Record{
		Type:              TypeDelivery,
		Status:            c9[0],
		ConsignmentNumber: c9[1],
		Postcode:          c9[2],
		Service:           c9[3],
		Date:              c9[4],
		Size:              size,
		Items:             items,
		Pay:               pay,
		Enhancement:       enhancement,
	}
	return Classification{Kind: KindDelivery, Record: rec, Date: rec.Date}
}

// --- collection (dated, variable shape) ---

func matchCollectionDated(cells []string, sec Section) bool {
	return sec != SectionDelivery && hasDate(cells)
}

func buildCollectionDated(cells []string) Classification {
	di := dateIndex(cells)
	date := cells[di]
	pre := cells[:di]

	sizeCell := ""
	if di+1 < len(cells) {
		sizeCell = cells[di+1]
	}

	rec := &Record{
		Type:               TypeCollection,
		Date:               date,
		Items:              "1", // collections are single-item in this domain
		CollectionPostcode: FindPostcode(pre),
		ConsignmentNumber:  rightmostConsignment(pre),
		Pay:                rightmostAmount(cells),
	}
	if len(pre) > 0 {
		rec.Account = pre[0]
	}
	if len(pre) > 1 {
		rec.CollectedFrom = pre[1]
	}

	// The cell right of the date may pack site code, size and money into one
	// string. A money token found there overrides the row-wide Pay default;
	// a site-code-shaped end token overrides Collected From.
	site, rest := splitSiteCode(sizeCell)
	if amount, residual := ExtractAmount(rest); amount != "" {
		rec.Pay = amount
		rec.Size = residual
	} else {
		rec.Size = rest
	}
	if site != "" {
		rec.CollectedFrom = site
	}

	return Classification{
		Kind:   KindCollectionDated,
		Record: rec,
		Key:    rec.CollectionPostcode,
		Date:   date,
	}
}

// --- collection (dateless, heuristic) ---

func matchCollectionDeferred(cells []string, sec Section) bool {
	if sec == SectionDelivery || hasDate(cells) {
		return false
	}
	// Looks like a collection: account-shaped first cell, a non-empty second
	// cell, and money somewhere in the row.
	return len(cells) >= 2 &&
		IsAccountToken(cells[0]) &&
		cells[1] != "" &&
		hasAmountToken(cells)
}

// buildDeferredCollection maps both the explicit Stop-Rate case and the
// heuristic dateless-collection case: the record shells are identical, only
// the predicates differ. The date stays empty until the ledger resolves it.
func buildDeferredCollection(cells []string) Classification {
	pay := rightmostAmount(cells)
	if pay == "" {
		pay = "0.00"
	}

	// Heuristic dateless collections may still carry a real consignment
	// number somewhere right of the account cell; rows without one take the
	// Stop-Rate sentinel so they survive emission after date backfill.
	consignment := StopRate
	if !containsStopRate(cells) {
		if c := rightmostConsignment(cells[1:]); c != "" {
			consignment = c
		}
	}

	rec := &Record{
		Type:               TypeCollection,
		ConsignmentNumber:  consignment,
		Items:              "1",
		Pay:                pay,
		Account:            cells[0],
		CollectionPostcode: FindPostcode(cells),
	}
	if len(cells) > 1 {
		rec.CollectedFrom = cells[1]
	}

	return Classification{
		Kind:   kindForDeferred(cells),
		Record: rec,
		Key:    rec.CollectionPostcode,
	}
}

func kindForDeferred(cells []string) RowKind {
	if containsStopRate(cells) {
		return KindStopRateDeferred
	}
	return KindCollectionDeferred
}

// --- shared helpers ---

func containsStopRate(cells []string) bool {
	for _, c := range cells {
		if strings.Contains(c, StopRate) {
			return true
		}
	}
	return false
}

func hasDate(cells []string) bool {
	return dateIndex(cells) >= 0
}

func dateIndex(cells []string) int {
	for i, c := range cells {
		if RecognizeDate(c) {
			return i
		}
	}
	return -1
}

// rightmostConsignment scans cells right to left, and tokens within a cell
// right to left, for either a Stop-Rate marker (which stands in for the
// consignment number) or a consignment-shaped token. Returns "" when the row
// carries neither; such rows are dropped at emission.
func rightmostConsignment(cells []string) string {
	for i := len(cells) - 1; i >= 0; i-- {
		if strings.Contains(cells[i], StopRate) {
			return StopRate
		}
		tokens := strings.Fields(cells[i])
		for j := len(tokens) - 1; j >= 0; j-- {
			if IsConsignmentToken(tokens[j]) {
				return tokens[j]
			}
		}
	}
	return ""
}

// padRow squares a ragged row to exactly n cells, padding with empty strings
// or truncating as needed.
func padRow(cells []string, n int) []string {
	out := make([]string, n)
	copy(out, cells)
	return out
}
