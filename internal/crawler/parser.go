package crawler

import (
	"bytes"
	"net/url"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// linkAttrs maps link-bearing HTML elements to the attribute that holds
// the link.
var linkAttrs = map[string]string{
	"a":      "href",
	"area":   "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"frame":  "src",
	"iframe": "src",
}

// ExtractLinks parses an HTML body and returns every candidate link
// resolved against base. The body is decoded according to contentType
// before parsing. Candidates that fail to parse as URLs are silently
// discarded; scope filtering is the caller's job.
func ExtractLinks(base *url.URL, body []byte, contentType string) ([]*url.URL, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// Undecodable charset: parse the raw bytes as a best effort.
		r = bytes.NewReader(body)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []*url.URL
	collectLinks(doc, base, &links)
	return links, nil
}

func collectLinks(n *html.Node, base *url.URL, links *[]*url.URL) {
	if n.Type == html.ElementNode {
		if attr, ok := linkAttrs[n.Data]; ok {
			for _, a := range n.Attr {
				if a.Key != attr || a.Val == "" {
					continue
				}
				ref, err := url.Parse(a.Val)
				if err != nil {
					continue
				}
				*links = append(*links, base.ResolveReference(ref))
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLinks(c, base, links)
	}
}
