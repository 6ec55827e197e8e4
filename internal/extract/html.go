package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// LabelText is the plain text of an ingredient label plus the allergens it highlights
type LabelText struct {
	Text      string
	Allergens []string
}

// ParseLabelHTML extracts visible text from ingredient markup such as
// `sugar, <span class="allergen">milk</span> powder`. Highlighted spans
// (class "allergen", <b>, <strong>) are reported as allergens.
func ParseLabelHTML(markup string) (LabelText, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return LabelText{}, err
	}

	var buf strings.Builder
	var allergens []string
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
			if isAllergenSpan(n) {
				name := strings.ToLower(CleanOCRText(nodeText(n)))
				if name != "" && !seen[name] {
					seen[name] = true
					allergens = append(allergens, name)
				}
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return LabelText{
		Text:      CleanOCRText(buf.String()),
		Allergens: allergens,
	}, nil
}

func isAllergenSpan(n *html.Node) bool {
	switch n.Data {
	case "b", "strong":
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" && strings.Contains(attr.Val, "allergen") {
			return true
		}
	}
	return false
}

// nodeText concatenates all text below n
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}
