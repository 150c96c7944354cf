package mdparse

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// visibleText returns the text a browser would display for an HTML
// fragment, with runs of whitespace collapsed. Script and style bodies are
// dropped.
func visibleText(raw []byte) string {
	z := html.NewTokenizer(bytes.NewReader(raw))
	var buf strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(buf.String()), " ")
		case html.TextToken:
			if skip == 0 {
				buf.Write(z.Text())
				buf.WriteByte(' ')
			}
		case html.StartTagToken:
			if hidden(z) {
				skip++
			}
		case html.EndTagToken:
			if hidden(z) && skip > 0 {
				skip--
			}
		}
	}
}

func hidden(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
