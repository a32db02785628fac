package manifest

import (
	"regexp"
	"strings"
)

// Section classifies what kind of rows a page is listing.
type Section int

const (
	SectionUnknown Section = iota
	SectionDelivery
	SectionCollection
)

// String returns the section name.
func (s Section) String() string {
	switch s {
	case SectionDelivery:
		return "Delivery"
	case SectionCollection:
		return "Collection"
	default:
		return "Unknown"
	}
}

// PageContext carries per-page state derived from header text. Section and
// driver identity inherit forward across pages when a page's own header does
// not restate them; Location is document-scoped and handled by the parser.
type PageContext struct {
	Section    Section
	DriverName string
	DriverID   string
}

var (
	driverRe   = regexp.MustCompile(`(Delivered|Collected) By:\s*(.+?)\s*\((\d+)\)`)
	locationRe = regexp.MustCompile(`Location:[ \t]*([^\n]+)`)
	// Runs of 2+ spaces mark where extracted header lines bleed into
	// neighbouring text.
	spaceRunRe = regexp.MustCompile(`\s{2,}`)
)

// ResolvePageContext derives a page's context from its plain text, inheriting
// any missing signal from the previous page. It never fails: absence of every
// signal simply yields prev unchanged.
func ResolvePageContext(pageText string, prev PageContext) PageContext {
	ctx := prev

	switch {
	case strings.Contains(pageText, "Collected By:"):
		ctx.Section = SectionCollection
	case strings.Contains(pageText, "Delivered By:"):
		ctx.Section = SectionDelivery
	}

	if m := driverRe.FindStringSubmatch(pageText); m != nil {
		ctx.DriverName = strings.TrimSpace(m[2])
		ctx.DriverID = m[3]
	}

	return ctx
}

// ExtractLocation pulls the depot location out of page text, truncated at the
// first run of 2+ spaces to guard against trailing header noise. Returns ""
// when the page does not state one; the parser substitutes "Unknown" at
// document scope.
func ExtractLocation(pageText string) string {
	m := locationRe.FindStringSubmatch(pageText)
	if m == nil {
		return ""
	}
	loc := m[1]
	if cut := spaceRunRe.FindStringIndex(loc); cut != nil {
		loc = loc[:cut[0]]
	}
	return strings.TrimSpace(loc)
}
