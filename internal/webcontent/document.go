package webcontent

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BlockKind selects how a block is laid out and painted.
type BlockKind int

const (
	// BlockText is wrapped body text.
	BlockText BlockKind = iota
	// BlockHeading is wrapped text in the heading face.
	BlockHeading
	// BlockPre keeps its line breaks and uses the fixed-width face.
	BlockPre
)

// Block is one run of text laid out on its own lines.
type Block struct {
	Kind    BlockKind
	Text    string
	Link    string
	Tooltip string
}

// Document is a loaded page reduced to text blocks.
type Document struct {
	URL    string
	Title  string
	Blocks []Block
}

// blockElements start a new block.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Section: true, atom.Table: true, atom.Td: true, atom.Th: true,
	atom.Tr: true, atom.Ul: true, atom.Body: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Pre: true, atom.A: true,
}

var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

// ParseHTML reads an HTML document.
func ParseHTML(r io.Reader, url string) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, fmt.Errorf("parse %s: %w", url, err)
	}
	b := &docBuilder{doc: Document{URL: url}}
	b.walk(root)
	b.flush()
	return b.doc, nil
}

// PlainText wraps text as a single preformatted block.
func PlainText(text, url string) Document {
	doc := Document{URL: url}
	if strings.TrimSpace(text) != "" {
		doc.Blocks = []Block{{Kind: BlockPre, Text: strings.TrimRight(text, "\n")}}
	}
	return doc
}

// ErrorDocument describes a failed load.
func ErrorDocument(url string, err error) Document {
	return Document{
		URL:   url,
		Title: "Error",
		Blocks: []Block{
			{Kind: BlockHeading, Text: "Failed to load " + url},
			{Kind: BlockText, Text: err.Error()},
		},
	}
}

type docBuilder struct {
	doc     Document
	text    strings.Builder
	kind    BlockKind
	link    string
	tooltip string
}

func (b *docBuilder) flush() {
	t := b.text.String()
	b.text.Reset()
	if b.kind == BlockPre {
		t = strings.Trim(t, "\n")
	} else {
		t = strings.Join(strings.Fields(t), " ")
	}
	if strings.TrimSpace(t) == "" {
		return
	}
	b.doc.Blocks = append(b.doc.Blocks, Block{Kind: b.kind, Text: t, Link: b.link, Tooltip: b.tooltip})
}

func (b *docBuilder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.text.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
		switch n.DataAtom {
		case atom.Title:
			if b.doc.Title == "" {
				b.doc.Title = strings.Join(strings.Fields(textContent(n)), " ")
			}
			return
		case atom.Br:
			if b.kind == BlockPre {
				b.text.WriteByte('\n')
			} else {
				b.flush()
			}
			return
		}
	}

	// Elements with a title get a block of their own so the tooltip covers
	// exactly their text.
	title := attr(n, "title")
	if n.Type != html.ElementNode || (!blockElements[n.DataAtom] && title == "") {
		b.walkChildren(n)
		return
	}

	kind, link, tooltip := b.kind, b.link, b.tooltip
	b.flush()
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		b.kind = BlockHeading
	case atom.Pre:
		b.kind = BlockPre
	case atom.A:
		if href := attr(n, "href"); href != "" {
			b.link = href
		}
	}
	if title != "" {
		b.tooltip = title
	}
	b.walkChildren(n)
	b.flush()
	b.kind, b.link, b.tooltip = kind, link, tooltip
}

func (b *docBuilder) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}
