package mdparse

import (
	"fmt"

	"github.com/dgallion1/epiclist/internal/ranges"
)

// Kind identifies the structural construct an Annotation describes.
type Kind uint8

const (
	KindParagraph Kind = iota + 1
	KindHeading
	KindHeadingSection
	KindLink
	KindList
	KindListItem
	KindEmphasis
	KindStrong
	KindStrikethrough
)

var kindNames = map[Kind]string{
	KindParagraph:      "paragraph",
	KindHeading:        "heading",
	KindHeadingSection: "heading_section",
	KindLink:           "link",
	KindList:           "list",
	KindListItem:       "list_item",
	KindEmphasis:       "emphasis",
	KindStrong:         "strong",
	KindStrikethrough:  "strikethrough",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the kind by name so annotation dumps stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown annotation kind %d", uint8(k))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a kind name written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown annotation kind %q", b)
}

// Annotation is a tagged span over a document's flat text.
//
// Start and End are byte offsets into the flat text, not the markdown
// source. StartLine and EndLine are 1-based source lines; EndLine is one
// past the last line the construct touches. Depth is the number of
// constructs that were open when this one began.
//
// Level is set for headings only; Href and Title for links only.
type Annotation struct {
	Kind      Kind   `json:"kind"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Depth     int    `json:"depth"`
	Level     int    `json:"level,omitempty"`
	Href      string `json:"href,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Span returns the flat-text range covered by a.
func (a Annotation) Span() ranges.Range {
	return ranges.Range{Start: a.Start, End: a.End}
}

// Nesting returns the annotation depth.
func (a Annotation) Nesting() int { return a.Depth }

// Lines returns the source line range of a.
func (a Annotation) Lines() ranges.Range {
	return ranges.Range{Start: a.StartLine, End: a.EndLine}
}

// Text slices the annotated span out of the flat text it was produced with.
func (a Annotation) Text(flat string) string {
	return flat[a.Start:a.End]
}

func (a Annotation) String() string {
	return fmt.Sprintf("%s:%d-%d@%d", a.Kind, a.Start, a.End, a.Depth)
}
