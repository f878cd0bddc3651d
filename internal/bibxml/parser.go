package bibxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"bookscan/internal/book"
	"bookscan/internal/services"
)

const (
	// DublinCoreURI is the Dublin Core elements namespace.
	DublinCoreURI = "http://purl.org/dc/elements/1.1/"
	// NDLTermsURI is the National Diet Library terms namespace.
	NDLTermsURI = "http://ndl.go.jp/dcndl/terms/"
)

// Namespaces maps prefixes used in field definitions to namespace URIs.
type Namespaces map[string]string

// DefaultNamespaces returns the dc and dcndl bindings.
func DefaultNamespaces() Namespaces {
	return Namespaces{
		"dc":    DublinCoreURI,
		"dcndl": NDLTermsURI,
	}
}

// field describes where one record value comes from.
type field struct {
	name     string
	prefix   string
	local    string
	required bool
	assign   func(*book.Record, string)
}

var recordFields = []field{
	{name: "title", prefix: "dc", local: "title", required: true, assign: func(r *book.Record, v string) { r.Title = v }},
	{name: "author", prefix: "dc", local: "creator", required: true, assign: func(r *book.Record, v string) { r.Author = v }},
	{name: "pubDate", local: "pubDate", required: true, assign: func(r *book.Record, v string) { r.PubDate = v }},
	{name: "publisher", prefix: "dc", local: "publisher", required: true, assign: func(r *book.Record, v string) { r.Publisher = v }},
	{name: "transcript", prefix: "dcndl", local: "titleTranscription", assign: func(r *book.Record, v string) { r.Transcript = v }},
}

type boundField struct {
	field
	qname xml.Name
}

// Parser extracts records using a fixed namespace table.
type Parser struct {
	fields []boundField
}

// NewParser binds the record field definitions to ns. Every prefix used by a
// field must be present.
func NewParser(ns Namespaces) (*Parser, error) {
	bound := make([]boundField, 0, len(recordFields))
	for _, f := range recordFields {
		space := ""
		if f.prefix != "" {
			uri, ok := ns[f.prefix]
			if !ok || strings.TrimSpace(uri) == "" {
				return nil, fmt.Errorf("namespace prefix %q is not registered", f.prefix)
			}
			space = uri
		}
		bound = append(bound, boundField{field: f, qname: xml.Name{Space: space, Local: f.local}})
	}
	return &Parser{fields: bound}, nil
}

// Parse returns the record described by body, taking the first element in
// document order for each field. The ISBN is left for the caller to set. A
// missing required field, or a body that is not XML, yields an error marked
// services.ErrParse; the optional transcription defaults to "".
func (p *Parser) Parse(body []byte) (book.Record, error) {
	var rec book.Record
	found := make([]bool, len(p.fields))
	remaining := len(p.fields)

	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.Strict = true
	sawElement := false

	for remaining > 0 {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return book.Record{}, services.Wrap(services.ErrParse, "parse", "decode", "", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawElement = true
		idx := p.match(start.Name, found)
		if idx < 0 {
			continue
		}
		text, err := elementText(decoder)
		if err != nil {
			return book.Record{}, services.Wrap(services.ErrParse, "parse", "decode", p.fields[idx].name, err)
		}
		p.fields[idx].assign(&rec, text)
		found[idx] = true
		remaining--
	}

	if !sawElement {
		return book.Record{}, services.Wrap(services.ErrParse, "parse", "decode", "response contains no XML elements", nil)
	}

	var missing []string
	for i, f := range p.fields {
		if f.required && !found[i] {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return book.Record{}, services.Wrap(services.ErrParse, "parse", "fields",
			"missing required "+strings.Join(missing, ", "), nil)
	}
	return rec, nil
}

func (p *Parser) match(name xml.Name, found []bool) int {
	for i, f := range p.fields {
		if !found[i] && f.qname == name {
			return i
		}
	}
	return -1
}

// elementText consumes tokens through the end of the current element and
// returns its NFC-normalized character data with surrounding space trimmed.
func elementText(decoder *xml.Decoder) (string, error) {
	var buf strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			buf.Write(t)
		}
	}
	return norm.NFC.String(strings.TrimSpace(buf.String())), nil
}
