package verify

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// HTMLLink is one link-bearing attribute found in a rendered document.
type HTMLLink struct {
	URL       string
	Tag       string
	Attribute string
}

// ExtractHTMLLinks parses r and returns every link-bearing attribute in
// document order.
func ExtractHTMLLinks(r io.Reader) ([]HTMLLink, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []HTMLLink
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if link, ok := elementLink(n); ok {
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func elementLink(n *html.Node) (HTMLLink, bool) {
	var attr string
	switch n.Data {
	case "a", "link":
		attr = "href"
	case "img", "script", "video", "audio", "source":
		attr = "src"
	default:
		return HTMLLink{}, false
	}
	if v := getAttr(n, attr); v != "" {
		return HTMLLink{URL: v, Tag: n.Data, Attribute: attr}, true
	}
	return HTMLLink{}, false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
