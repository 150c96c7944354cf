// Package awesome extracts catalog entries from "awesome list" style
// markdown: bulleted lists whose items lead with a link followed by a short
// description, grouped under headings.
package awesome

import (
	"net/url"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/epiclist/internal/anntree"
	"github.com/dgallion1/epiclist/internal/mdparse"
	"github.com/dgallion1/epiclist/internal/ranges"
)

// Catalog is the result of extracting one document.
type Catalog struct {
	Entries   []AwesomeLink `json:"entries"`
	Text      string        `json:"-"`
	LineCount int           `json:"line_count"`
}

// Extract parses source with mdparse.DefaultOptions and returns its catalog
// entries in document order.
func Extract(source string) ([]AwesomeLink, error) {
	c, err := ExtractDocument(source, mdparse.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return c.Entries, nil
}

// ExtractDocument parses source with opts and extracts its catalog.
// Parse failures are returned unchanged.
func ExtractDocument(source string, opts mdparse.Options) (*Catalog, error) {
	doc, err := mdparse.Parse(source, opts)
	if err != nil {
		return nil, err
	}
	return &Catalog{
		Entries:   FromDocument(doc),
		Text:      doc.Text,
		LineCount: doc.LineCount,
	}, nil
}

// FromDocument extracts the catalog entries of an already parsed document.
func FromDocument(doc *mdparse.Document) []AwesomeLink {
	x := &extractor{
		text: doc.Text,
		anns: doc.Annotations,
		tree: anntree.New(doc.Annotations),
	}
	return x.run()
}

type extractor struct {
	text string
	anns []mdparse.Annotation
	tree *anntree.Tree[mdparse.Annotation]

	// list items that produced an entry; their sub-items do not
	entryItems map[int]bool
}

func (x *extractor) run() []AwesomeLink {
	x.entryItems = make(map[int]bool)
	entries := []AwesomeLink{}
	for slot, ann := range x.anns {
		if ann.Kind != mdparse.KindLink {
			continue
		}
		if e, ok := x.entry(slot); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// entry decides whether the link in slot is a catalog entry and builds it.
func (x *extractor) entry(slot int) (AwesomeLink, bool) {
	link := x.anns[slot]
	if strings.HasPrefix(link.Href, "#") {
		return AwesomeLink{}, false
	}
	u, err := parseURL(link.Href)
	if err != nil || !u.IsAbs() {
		return AwesomeLink{}, false
	}

	ancestors := x.tree.Ancestors(slot)
	if len(ancestors) == 0 || x.anns[ancestors[0]].Kind != mdparse.KindListItem {
		return AwesomeLink{}, false
	}
	item := ancestors[0]
	for _, a := range ancestors[1:] {
		if x.entryItems[a] {
			return AwesomeLink{}, false
		}
	}

	children := x.tree.Children(item)
	if len(children) == 0 || children[0] != slot {
		return AwesomeLink{}, false
	}

	title := link.Text(x.text)
	description := x.description(item, children, link)
	x.entryItems[item] = true
	return AwesomeLink{
		URL:         u,
		Title:       title,
		Breadcrumbs: x.breadcrumbs(item),
		Description: description,
		LinkType:    inferLinkType(u, title),
		SourceLines: link.Lines(),
	}, true
}

// description is the item text after the link, up to any nested list,
// without a link-only label prefix.
func (x *extractor) description(item int, children []int, link mdparse.Annotation) string {
	li := x.anns[item].Span()
	rest := li.Sub(ranges.Range{Start: 0, End: link.End})

	for _, c := range children {
		if x.anns[c].Kind == mdparse.KindList {
			rest = rest.Sub(ranges.Range{Start: x.anns[c].Start, End: len(x.text)})
			break
		}
	}
	if prefix, ok := x.linksPrefix(item, children); ok {
		rest = rest.Sub(prefix)
	}

	outer, ok := rest.Outer()
	if !ok {
		return ""
	}
	s := strings.TrimLeftFunc(x.text[outer.Start:outer.End], func(r rune) bool { return !unicode.IsLetter(r) })
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// linksPrefix finds the text before the first dash of an item when that
// text is made up of links and punctuation, e.g. "**[a](x)** / [b](y) -".
func (x *extractor) linksPrefix(item int, children []int) (ranges.Range, bool) {
	ann := x.anns[item]
	text := ann.Text(x.text)
	cut := strings.IndexFunc(text, isDash)
	if cut < 0 {
		return ranges.Range{}, false
	}
	// a dash that ends the item text does not split it
	_, size := utf8.DecodeRuneInString(text[cut:])
	if cut+size >= len(text) {
		return ranges.Range{}, false
	}

	prefix := ranges.Range{Start: ann.Start, End: ann.Start + cut}
	unlinked := ranges.UnionOf(prefix)
	for _, c := range children {
		if x.anns[c].Kind == mdparse.KindLink {
			unlinked = unlinked.Sub(x.anns[c].Span())
		}
	}

	n := 0
	for _, s := range unlinked.Slices(x.text) {
		for _, r := range s {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				n++
			}
		}
	}
	if n > 2 {
		return ranges.Range{}, false
	}
	return prefix, true
}

func isDash(r rune) bool { return r == '-' || r == '—' }

// breadcrumbs returns the texts of the headings whose sections enclose
// item, outermost first.
func (x *extractor) breadcrumbs(item int) []string {
	type crumb struct {
		start int
		text  string
	}
	var crumbs []crumb
	for _, a := range x.tree.Ancestors(item) {
		section := x.anns[a]
		if section.Kind != mdparse.KindHeadingSection {
			continue
		}
		probe := ranges.Range{Start: section.Start, End: section.Start + 1}
		for _, h := range x.tree.Query(probe) {
			heading := x.anns[h]
			if heading.Kind != mdparse.KindHeading || heading.Start != section.Start {
				continue
			}
			text := strings.ReplaceAll(heading.Text(x.text), mdparse.ImagePlaceholder, "")
			crumbs = append(crumbs, crumb{start: heading.Start, text: strings.TrimSpace(text)})
		}
	}
	slices.SortStableFunc(crumbs, func(a, b crumb) int { return a.start - b.start })

	out := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		out = append(out, c.text)
	}
	return out
}

var domainTypes = map[string]LinkType{
	"github.com":         LinkRepo,
	"youtube.com":        LinkVideo,
	"www.youtube.com":    LinkVideo,
	"youtu.be":           LinkVideo,
	"podcasts.apple.com": LinkPodcast,
	"www.rust-lang.org":  LinkArticle,
}

func inferLinkType(u *url.URL, title string) LinkType {
	if t, ok := domainTypes[u.Hostname()]; ok {
		return t
	}
	switch {
	case strings.Contains(title, "book"):
		return LinkBook
	case strings.Contains(title, "course"):
		return LinkCourse
	}
	return LinkOther
}
