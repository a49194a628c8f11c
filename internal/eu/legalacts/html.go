package legalacts

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type parsedHTML struct {
	text  string
	title string
	metas map[string]string
}

// parseHTML collects the visible text nodes joined by newlines, the document
// title and every <meta name content> pair.
func parseHTML(r io.Reader) (parsedHTML, error) {
	root, err := html.Parse(r)
	if err != nil {
		return parsedHTML{}, fmt.Errorf("failed to parse html: %w", err)
	}

	out := parsedHTML{metas: map[string]string{}}
	var texts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				texts = append(texts, t)
			}
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			case atom.Title:
				if out.title == "" && n.FirstChild != nil {
					out.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Meta:
				var name, content string
				for _, a := range n.Attr {
					switch strings.ToLower(a.Key) {
					case "name":
						name = a.Val
					case "content":
						content = a.Val
					}
				}
				if name != "" && content != "" {
					out.metas[strings.ToLower(name)] = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	out.text = strings.Join(texts, "\n")
	return out, nil
}
