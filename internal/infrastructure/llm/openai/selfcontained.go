package openai

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ensureSelfContained parses the document and rejects any reference that
// would require the network at view time. The artifact must be openable
// offline, years later, with nothing but the file itself.
func ensureSelfContained(doc []byte) error {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	var offending []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if ref := externalRef(n); ref != "" {
				offending = append(offending, fmt.Sprintf("<%s> -> %s", n.Data, ref))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(offending) > 0 {
		return fmt.Errorf("document references external resources: %s", strings.Join(offending, "; "))
	}
	return nil
}

func externalRef(n *html.Node) string {
	var attrName string
	switch n.Data {
	case "script", "img", "iframe", "source", "video", "audio":
		attrName = "src"
	case "link":
		attrName = "href"
	default:
		return ""
	}
	for _, a := range n.Attr {
		if a.Key != attrName {
			continue
		}
		v := strings.TrimSpace(strings.ToLower(a.Val))
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "//") {
			return a.Val
		}
	}
	return ""
}
