package manifest

// Document is the shape the PDF extraction collaborator must supply: pages in
// document order, each with its plain text (for header detection) and zero or
// more tables of ragged text-cell rows. The parser assumes this interface and
// does not care how tables were detected.
type Document struct {
	Pages []Page
}

// Page is one extracted PDF page.
type Page struct {
	Text   string
	Tables []Table
}

// Table is an ordered sequence of rows. Cell counts vary row to row.
type Table struct {
	Rows [][]string
}

// DocumentExtractor turns raw PDF bytes into a Document. A failure here is the
// only hard-failure path of a parse; everything downstream degrades instead.
type DocumentExtractor interface {
	ExtractDocument(data []byte) (*Document, error)
}
