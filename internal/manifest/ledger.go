package manifest

// Ledger buffers collection records that arrived without a date, keyed by
// collection postcode (or the empty-string bucket when a row had none), and
// tracks every date observed in the document for the end-of-stream fallback.
// A ledger belongs to exactly one parse invocation; it is never shared.
//
// A pending record's date is backfilled from the next row sharing its key,
// never a previous one, so callers must feed rows in document order.
type Ledger struct {
	pending  map[string][]*Record
	keyOrder []string // insertion order of keys, for deterministic flushing

	dateCount map[string]int
	dateOrder []string // first-seen order of dates, for tie-breaking
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		pending:   make(map[string][]*Record),
		dateCount: make(map[string]int),
	}
}

// Defer buffers a dateless record under the given grouping key. The ledger
// owns the record until it is resolved.
func (l *Ledger) Defer(rec *Record, key string) {
	if _, seen := l.pending[key]; !seen {
		l.keyOrder = append(l.keyOrder, key)
	}
	l.pending[key] = append(l.pending[key], rec)
}

// ObserveDate records a date seen on any dated row, fuelling the
// most-frequent-date fallback.
func (l *Ledger) ObserveDate(date string) {
	if date == "" {
		return
	}
	if l.dateCount[date] == 0 {
		l.dateOrder = append(l.dateOrder, date)
	}
	l.dateCount[date]++
}

// Resolve pops every record pending under key, stamps each with date, and
// returns them in the order they were deferred. Returns nil when nothing was
// pending.
func (l *Ledger) Resolve(key, date string) []*Record {
	recs := l.pending[key]
	if len(recs) == 0 {
		return nil
	}
	delete(l.pending, key)
	for _, r := range recs {
		r.Date = date
	}
	return recs
}

// MostCommonDate returns the most frequently observed date, ties broken by
// first-seen order, or "" when no dated row ever appeared.
func (l *Ledger) MostCommonDate() string {
	best, bestCount := "", 0
	for _, d := range l.dateOrder {
		if l.dateCount[d] > bestCount {
			best, bestCount = d, l.dateCount[d]
		}
	}
	return best
}

// Flush stamps every still-pending record with the most common document date
// and returns them all, keys in insertion order. With no observed dates the
// records come back with an empty Date, which is the accepted degenerate
// case, not an error. After Flush the ledger holds nothing.
func (l *Ledger) Flush() []*Record {
	fallback := l.MostCommonDate()

	var out []*Record
	for _, key := range l.keyOrder {
		for _, r := range l.pending[key] {
			r.Date = fallback
			out = append(out, r)
		}
		delete(l.pending, key)
	}
	l.keyOrder = nil
	return out
}

// PendingCount reports how many records are still awaiting a date.
func (l *Ledger) PendingCount() int {
	n := 0
	for _, recs := range l.pending {
		n += len(recs)
	}
	return n
}
