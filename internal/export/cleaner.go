// Package export turns stored raw HTML into the plain-text corpus consumed
// by downstream indexing: one numbered text file per page plus a URL
// registry, with an optional Elasticsearch copy.
package export

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// nonContentSelectors lists elements stripped before extracting page text.
const nonContentSelectors = "script, style, header, footer, nav, aside, form, iframe, noscript, button"

// Document is the cleaned plain-text form of one page.
type Document struct {
	Text  string
	Words int
}

// Cleaner strips layout chrome from raw HTML and collapses the remaining
// text to single-spaced words.
type Cleaner struct{}

// NewCleaner creates a cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean parses raw HTML, removes non-content elements, and returns the
// remaining body text with whitespace collapsed to single spaces.
func (c *Cleaner) Clean(rawHTML string) (*Document, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return &Document{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find(nonContentSelectors).Remove()

	var builder strings.Builder
	for _, node := range doc.Find("body").Nodes {
		appendText(&builder, node)
	}

	words := strings.Fields(builder.String())

	return &Document{
		Text:  strings.Join(words, " "),
		Words: len(words),
	}, nil
}

// appendText writes every text node under n, separated by spaces so words
// in adjacent elements do not run together.
func appendText(builder *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		builder.WriteString(n.Data)
		builder.WriteByte(' ')
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		appendText(builder, child)
	}
}
