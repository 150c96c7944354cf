// Package mdparse turns a CommonMark document into flat text plus a set of
// structural annotations (headings, paragraphs, lists, links, ...) with
// nesting depth and source line numbers.
package mdparse

import (
	"fmt"
	"io"
)

// Document is a parsed markdown document. It is never modified after
// Parse returns.
type Document struct {
	Text        string         // flat text the annotation offsets refer to
	Annotations []Annotation   // sorted by start, depth, end
	FrontMatter map[string]any // nil unless front matter was stripped
	LineCount   int            // lines in the markdown source
}

// Parser parses markdown with a fixed set of options. It holds no other
// state and is safe for concurrent use.
type Parser struct {
	opts Options
}

func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Options returns the options the parser was built with.
func (p *Parser) Options() Options { return p.opts }

// Parse annotates src. Annotation failures are reported as *StructuralError.
func (p *Parser) Parse(src []byte) (*Document, error) {
	var (
		meta map[string]any
		base int
	)
	if p.opts.FrontMatter {
		meta, base = splitFrontMatter(src)
	}

	events, err := Tokenize(src[base:], p.opts)
	if err != nil {
		return nil, err
	}
	if base > 0 {
		for i := range events {
			events[i].Start += base
			events[i].End += base
		}
	}

	text, anns, err := Annotate(src, events)
	if err != nil {
		return nil, err
	}
	return &Document{
		Text:        text,
		Annotations: anns,
		FrontMatter: meta,
		LineCount:   newLineIndex(src).count(),
	}, nil
}

// ParseReader reads all of r and parses it.
func (p *Parser) ParseReader(r io.Reader) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	return p.Parse(src)
}

// Parse annotates source with the given options.
func Parse(source string, opts Options) (*Document, error) {
	return NewParser(opts).Parse([]byte(source))
}

// ParseMarkdown annotates source with DefaultOptions and returns the flat
// text and the annotations.
func ParseMarkdown(source string) (string, []Annotation, error) {
	doc, err := Parse(source, DefaultOptions())
	if err != nil {
		return "", nil, err
	}
	return doc.Text, doc.Annotations, nil
}
