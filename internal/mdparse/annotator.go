package mdparse

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ImagePlaceholder stands in for an image in the flat text.
const ImagePlaceholder = "📷"

// bullet is written at the start of every list item, after one tab per
// level of list nesting.
const bullet = "• "

// openAnnotation is an annotation whose closing event has not been seen
// yet. It carries only what is known at open time.
type openAnnotation struct {
	kind      Kind
	tag       Tag
	start     int
	startLine int
	depth     int
	level     int
	href      string
	title     string
}

func (o openAnnotation) close(end, endLine int) (Annotation, error) {
	if o.kind == KindHeading && (o.level < 1 || o.level > 6) {
		return Annotation{}, fmt.Errorf("heading level %d", o.level)
	}
	if end < o.start || endLine < o.startLine {
		return Annotation{}, fmt.Errorf("%s closes before it opens", o.kind)
	}
	return Annotation{
		Kind:      o.kind,
		Start:     o.start,
		End:       end,
		StartLine: o.startLine,
		EndLine:   endLine,
		Depth:     o.depth,
		Level:     o.level,
		Href:      o.href,
		Title:     o.title,
	}, nil
}

var annotatedTags = map[Tag]Kind{
	TagParagraph:     KindParagraph,
	TagHeading:       KindHeading,
	TagList:          KindList,
	TagItem:          KindListItem,
	TagLink:          KindLink,
	TagEmphasis:      KindEmphasis,
	TagStrong:        KindStrong,
	TagStrikethrough: KindStrikethrough,
}

// Annotate runs a single pass over events and returns the flat text and
// the annotation set, sorted by start, then depth, then end. src is the
// markdown the event offsets refer to and is used for line numbers only.
//
// Heading sections are synthesized after the pass: each spans from its
// heading to the next heading of the same or a shallower level.
func Annotate(src []byte, events []Event) (string, []Annotation, error) {
	a := &annotator{lines: newLineIndex(src)}
	for i, ev := range events {
		if err := a.handle(ev); err != nil {
			sentinel := ErrMismatchedTags
			var inc incompleteError
			if errors.As(err, &inc) {
				sentinel = ErrIncompleteAnnotation
			}
			return "", nil, &StructuralError{Err: sentinel, Event: i, Tag: ev.Tag, Offset: ev.Start, Detail: err.Error()}
		}
	}
	if n := len(a.open); n > 0 {
		return "", nil, &StructuralError{
			Err:    ErrMismatchedTags,
			Event:  -1,
			Detail: fmt.Sprintf("%d construct(s) left open, innermost %s", n, a.open[n-1].kind),
		}
	}

	flat := a.text.String()
	sections, err := headingSections(a.anns, len(flat), a.lines.count())
	if err != nil {
		return "", nil, &StructuralError{Err: ErrIncompleteAnnotation, Event: -1, Detail: err.Error()}
	}
	anns := append(a.anns, sections...)
	slices.SortStableFunc(anns, func(x, y Annotation) int {
		if x.Start != y.Start {
			return x.Start - y.Start
		}
		if x.Depth != y.Depth {
			return x.Depth - y.Depth
		}
		return x.End - y.End
	})
	return flat, anns, nil
}

type annotator struct {
	lines  lineIndex
	text   strings.Builder
	open   []openAnnotation
	anns   []Annotation
	indent int // list nesting
	ignore int // image nesting; text is suppressed while > 0
}

// incompleteError marks close failures so they map to ErrIncompleteAnnotation.
type incompleteError struct{ msg string }

func (e incompleteError) Error() string { return e.msg }

func (a *annotator) handle(ev Event) error {
	switch ev.Kind {
	case EventStart:
		return a.start(ev)
	case EventEnd:
		return a.end(ev)
	case EventText:
		if a.ignore == 0 {
			a.text.WriteString(ev.Text)
		}
		return nil
	}
	return fmt.Errorf("unknown event kind %d", ev.Kind)
}

func (a *annotator) start(ev Event) error {
	switch ev.Tag {
	case TagImage:
		if a.ignore == 0 {
			a.text.WriteString(ImagePlaceholder)
		}
		a.ignore++
		return nil
	case TagParagraph, TagHeading, TagCodeBlock, TagHTMLBlock, TagTableRow:
		a.newline()
	case TagList:
		a.newline()
		a.indent++
	case TagItem:
		a.newline()
	case TagTableCell:
		if a.text.Len() > 0 && !strings.HasSuffix(a.text.String(), "\n") {
			a.text.WriteByte('\t')
		}
	}

	if kind, ok := annotatedTags[ev.Tag]; ok {
		a.open = append(a.open, openAnnotation{
			kind:      kind,
			tag:       ev.Tag,
			start:     a.text.Len(),
			startLine: a.lines.line(ev.Start),
			depth:     len(a.open),
			level:     ev.Level,
			href:      ev.Href,
			title:     ev.Title,
		})
	}

	if ev.Tag == TagItem && a.ignore == 0 {
		a.text.WriteString(strings.Repeat("\t", a.indent))
		a.text.WriteString(bullet)
	}
	return nil
}

func (a *annotator) end(ev Event) error {
	switch ev.Tag {
	case TagImage:
		if a.ignore == 0 {
			return fmt.Errorf("image closed while none is open")
		}
		a.ignore--
		return nil
	case TagList:
		a.indent--
	}

	kind, ok := annotatedTags[ev.Tag]
	if !ok {
		return nil
	}
	n := len(a.open)
	if n == 0 {
		return fmt.Errorf("%s closed while nothing is open", kind)
	}
	top := a.open[n-1]
	if top.tag != ev.Tag {
		return fmt.Errorf("%s closed while %s is open", kind, top.kind)
	}
	a.open = a.open[:n-1]

	last := max(ev.End-1, ev.Start)
	ann, err := top.close(a.text.Len(), a.lines.line(last)+1)
	if err != nil {
		return incompleteError{msg: err.Error()}
	}
	a.anns = append(a.anns, ann)
	return nil
}

func (a *annotator) newline() {
	if a.text.Len() > 0 && !strings.HasSuffix(a.text.String(), "\n") {
		a.text.WriteByte('\n')
	}
}

// headingSections builds one section per heading. A section ends where
// the next heading of the same or a shallower level starts, or at the end
// of the document.
func headingSections(anns []Annotation, textEnd, lineEnd int) ([]Annotation, error) {
	var headings []Annotation
	for _, ann := range anns {
		if ann.Kind == KindHeading {
			headings = append(headings, ann)
		}
	}
	slices.SortStableFunc(headings, func(x, y Annotation) int { return x.Start - y.Start })

	type openSection struct {
		section openAnnotation
		level   int
	}
	var (
		open     []openSection
		sections []Annotation
	)
	closeTop := func(end, endLine int) error {
		top := open[len(open)-1]
		open = open[:len(open)-1]
		sec, err := top.section.close(end, endLine)
		if err != nil {
			return err
		}
		sections = append(sections, sec)
		return nil
	}

	for _, h := range headings {
		for len(open) > 0 && h.Level <= open[len(open)-1].level {
			if err := closeTop(h.Start, h.StartLine); err != nil {
				return nil, err
			}
		}
		open = append(open, openSection{
			section: openAnnotation{
				kind:      KindHeadingSection,
				start:     h.Start,
				startLine: h.StartLine,
				depth:     h.Depth,
			},
			level: h.Level,
		})
	}
	for len(open) > 0 {
		if err := closeTop(textEnd, lineEnd); err != nil {
			return nil, err
		}
	}
	return sections, nil
}

// lineIndex maps source byte offsets to 1-based line numbers.
type lineIndex struct {
	newlines []int
	size     int
}

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{size: len(src)}
	for i, b := range src {
		if b == '\n' {
			idx.newlines = append(idx.newlines, i)
		}
	}
	return idx
}

// line returns the line holding offset.
func (l lineIndex) line(offset int) int {
	return sort.SearchInts(l.newlines, offset) + 1
}

// count returns the number of lines in the source. A trailing newline does
// not open a new line.
func (l lineIndex) count() int {
	if l.size == 0 {
		return 0
	}
	n := len(l.newlines)
	if n == 0 || l.newlines[n-1] != l.size-1 {
		n++
	}
	return n
}
