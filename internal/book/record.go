// Package book defines the bibliographic record persisted by bookscan.
package book

// Record is the metadata stored per ISBN. Records are built once from a lookup
// response and never mutated afterwards; a later lookup replaces the whole value.
type Record struct {
	ISBN       string `json:"isbn"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	PubDate    string `json:"pubDate"`
	Publisher  string `json:"publisher"`
	Transcript string `json:"transcript"`
}

// Fields returns the printable record values in display order.
func (r Record) Fields() []Field {
	return []Field{
		{Label: "title", Value: r.Title},
		{Label: "author", Value: r.Author},
		{Label: "pubDate", Value: r.PubDate},
		{Label: "publisher", Value: r.Publisher},
		{Label: "transcript", Value: r.Transcript},
	}
}

// Field is one labelled record value.
type Field struct {
	Label string
	Value string
}
