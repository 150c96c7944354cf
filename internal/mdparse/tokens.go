package mdparse

import (
	"fmt"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// EventKind distinguishes the three event shapes of a token stream.
type EventKind uint8

const (
	EventStart EventKind = iota + 1
	EventEnd
	EventText
)

// Tag names the construct a start or end event belongs to.
type Tag uint8

const (
	TagNone Tag = iota
	TagParagraph
	TagHeading
	TagList
	TagItem
	TagLink
	TagImage
	TagEmphasis
	TagStrong
	TagStrikethrough
	TagCodeBlock
	TagHTMLBlock
	TagTableRow
	TagTableCell
)

var tagNames = [...]string{
	TagNone:          "none",
	TagParagraph:     "paragraph",
	TagHeading:       "heading",
	TagList:          "list",
	TagItem:          "item",
	TagLink:          "link",
	TagImage:         "image",
	TagEmphasis:      "emphasis",
	TagStrong:        "strong",
	TagStrikethrough: "strikethrough",
	TagCodeBlock:     "code_block",
	TagHTMLBlock:     "html_block",
	TagTableRow:      "table_row",
	TagTableCell:     "table_cell",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// Event is one element of a markdown token stream. Start and End are byte
// offsets into the markdown source; for start and end events of the same
// construct they are identical.
type Event struct {
	Kind  EventKind
	Tag   Tag
	Start int
	End   int
	Text  string // EventText only
	Level int    // TagHeading start only
	Href  string // TagLink start only
	Title string // TagLink start only
}

// Tokenize parses src with goldmark and flattens the resulting AST into a
// start/end/text event stream.
func Tokenize(src []byte, opts Options) ([]Event, error) {
	doc := newEngine(opts).Parser().Parse(text.NewReader(src))
	t := &tokenizer{src: src, opts: opts}
	if err := ast.Walk(doc, t.visit); err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	return t.events, nil
}

type tokenizer struct {
	src    []byte
	opts   Options
	events []Event
	cursor int // furthest source offset seen so far
}

func (t *tokenizer) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Paragraph:
		t.wrap(n, entering, Event{Tag: TagParagraph})
	case *ast.Heading:
		t.wrap(n, entering, Event{Tag: TagHeading, Level: node.Level})
	case *ast.List:
		t.wrap(n, entering, Event{Tag: TagList})
	case *ast.ListItem:
		t.wrap(n, entering, Event{Tag: TagItem})
	case *ast.Link:
		t.wrap(n, entering, Event{Tag: TagLink, Href: string(node.Destination), Title: string(node.Title)})
	case *ast.AutoLink:
		if entering {
			start, end := t.span(n)
			t.emit(Event{Kind: EventStart, Tag: TagLink, Start: start, End: end, Href: string(node.URL(t.src))})
			t.emitText(string(node.Label(t.src)), start, end)
			t.emit(Event{Kind: EventEnd, Tag: TagLink, Start: start, End: end})
		}
		return ast.WalkSkipChildren, nil
	case *ast.Image:
		t.wrap(n, entering, Event{Tag: TagImage})
	case *ast.Emphasis:
		if t.opts.InlineAnnotations {
			tag := TagEmphasis
			if node.Level >= 2 {
				tag = TagStrong
			}
			t.wrap(n, entering, Event{Tag: tag})
		}
	case *extast.Strikethrough:
		if t.opts.InlineAnnotations {
			t.wrap(n, entering, Event{Tag: TagStrikethrough})
		}
	case *ast.Text:
		if entering {
			t.text(node)
		}
	case *ast.String:
		if entering {
			start, end := t.span(n)
			t.emitText(string(node.Value), start, end)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			t.lines(n, TagCodeBlock)
		}
		return ast.WalkSkipChildren, nil
	case *ast.HTMLBlock:
		if entering && t.opts.HTMLText {
			t.htmlBlock(node)
		}
		return ast.WalkSkipChildren, nil
	case *ast.RawHTML:
		if entering && t.opts.HTMLText {
			t.rawHTML(node)
		}
		return ast.WalkSkipChildren, nil
	case *extast.TableHeader, *extast.TableRow:
		t.wrap(n, entering, Event{Tag: TagTableRow})
	case *extast.TableCell:
		t.wrap(n, entering, Event{Tag: TagTableCell})
	}
	return ast.WalkContinue, nil
}

// wrap emits the start event on entry and the matching end event on exit.
func (t *tokenizer) wrap(n ast.Node, entering bool, ev Event) {
	ev.Start, ev.End = t.span(n)
	if entering {
		ev.Kind = EventStart
	} else {
		ev.Kind = EventEnd
		ev.Level, ev.Href, ev.Title = 0, "", ""
	}
	t.emit(ev)
}

func (t *tokenizer) text(node *ast.Text) {
	seg := node.Segment
	value := seg.Value(t.src)
	if !node.IsRaw() {
		value = util.UnescapePunctuations(util.ResolveEntityNames(util.ResolveNumericReferences(value)))
	}
	t.emitText(string(value), seg.Start, seg.Stop)
	switch {
	case node.HardLineBreak():
		t.emitText("\n", seg.Stop, seg.Stop)
	case node.SoftLineBreak():
		t.emitText(" ", seg.Stop, seg.Stop)
	}
}

func (t *tokenizer) lines(n ast.Node, tag Tag) {
	start, end := t.span(n)
	t.emit(Event{Kind: EventStart, Tag: tag, Start: start, End: end})
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		t.emitText(string(line.Value(t.src)), line.Start, line.Stop)
	}
	t.emit(Event{Kind: EventEnd, Tag: tag, Start: start, End: end})
}

func (t *tokenizer) htmlBlock(node *ast.HTMLBlock) {
	start, end := t.span(node)
	var raw []byte
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		raw = append(raw, line.Value(t.src)...)
	}
	if node.HasClosure() {
		raw = append(raw, node.ClosureLine.Value(t.src)...)
		end = max(end, node.ClosureLine.Stop)
	}
	t.emit(Event{Kind: EventStart, Tag: TagHTMLBlock, Start: start, End: end})
	if s := visibleText(raw); s != "" {
		t.emitText(s, start, end)
	}
	t.emit(Event{Kind: EventEnd, Tag: TagHTMLBlock, Start: start, End: end})
}

func (t *tokenizer) rawHTML(node *ast.RawHTML) {
	var raw []byte
	start, end := -1, -1
	for i := 0; i < node.Segments.Len(); i++ {
		seg := node.Segments.At(i)
		raw = append(raw, seg.Value(t.src)...)
		if start < 0 {
			start = seg.Start
		}
		end = seg.Stop
	}
	if s := visibleText(raw); s != "" {
		t.emitText(s, start, end)
	}
}

func (t *tokenizer) emitText(s string, start, end int) {
	if s == "" {
		return
	}
	t.emit(Event{Kind: EventText, Start: start, End: end, Text: s})
}

func (t *tokenizer) emit(ev Event) {
	t.cursor = max(t.cursor, ev.End)
	t.events = append(t.events, ev)
}

// span returns the source extent of n, taken from the segments of n and
// its descendants. Container nodes such as lists carry no segments of their
// own. Nodes with no segments at all collapse onto the current cursor.
func (t *tokenizer) span(n ast.Node) (int, int) {
	start, end := -1, -1
	grow := func(s, e int) {
		if start < 0 || s < start {
			start = s
		}
		if e > end {
			end = e
		}
	}
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Text:
			grow(node.Segment.Start, node.Segment.Stop)
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				grow(seg.Start, seg.Stop)
			}
		}
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				grow(seg.Start, seg.Stop)
			}
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	if start < 0 {
		return t.cursor, t.cursor
	}
	return start, end
}
