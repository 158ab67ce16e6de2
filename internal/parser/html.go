package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (string, error) {
	blocks, err := htmlBlocks(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return strings.Join(blocks, "\n\n"), nil
}

// htmlBlocks walks an HTML document and returns its readable text as a
// flat list of blocks. Headings become their own block so they land on
// their own line in the assembled text.
func htmlBlocks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var blocks []string
	var pending strings.Builder

	flush := func() {
		if t := strings.TrimSpace(pending.String()); t != "" {
			blocks = append(blocks, t)
		}
		pending.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if isHeadingTag(n.Data) {
				flush()
				if t := textContent(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "p", "li", "td", "blockquote", "pre":
				if t := textContent(n); t != "" {
					flush()
					blocks = append(blocks, t)
				}
				return
			case "br":
				pending.WriteString("\n")
				return
			}
		}
		if n.Type == html.TextNode {
			pending.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	flush()

	return blocks, nil
}

func isHeadingTag(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
