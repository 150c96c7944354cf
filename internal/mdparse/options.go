package mdparse

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Options selects tokenizer features. A single value is built at startup
// and passed to every parse call.
type Options struct {
	Tables            bool // GFM tables
	Strikethrough     bool // GFM ~~strikethrough~~
	Linkify           bool // bare URLs become links
	InlineAnnotations bool // emit Emphasis, Strong and Strikethrough annotations
	HTMLText          bool // raw HTML contributes its visible text
	FrontMatter       bool // strip a leading YAML/TOML front matter block
}

// DefaultOptions enables tables and strikethrough and strips front matter.
func DefaultOptions() Options {
	return Options{
		Tables:        true,
		Strikethrough: true,
		FrontMatter:   true,
	}
}

func newEngine(opts Options) goldmark.Markdown {
	var exts []goldmark.Extender
	if opts.Tables {
		exts = append(exts, extension.Table)
	}
	if opts.Strikethrough {
		exts = append(exts, extension.Strikethrough)
	}
	if opts.Linkify {
		exts = append(exts, extension.Linkify)
	}
	return goldmark.New(goldmark.WithExtensions(exts...))
}
