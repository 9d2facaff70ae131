// Package extract turns problem statement markup into record fields. Extraction is
// heuristic: every function returns nil or an empty value when the markup does not look
// the way it expects and never fails the record.
package extract

import (
	"cqscraper/pkg/htmlutil"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Partial is the part of a record that can be read off a problem statement.
type Partial struct {
	// Description is every paragraph before the first "Example" paragraph, nil if there is none.
	Description *string
	Constraints []string
	// Examples maps "Example N" to the text of the first <pre> after the Nth example paragraph.
	Examples map[string]string
}

func parse(fragment string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(fragment))
}

// elements returns every element named one of names under sel, in document order.
func elements(sel *goquery.Selection, names ...string) []*html.Node {
	var out []*html.Node
	sel.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Nodes[0]
		for _, name := range names {
			if node.Data == name {
				out = append(out, node)
				return
			}
		}
	})
	return out
}

// Problem extracts the description, constraints and examples of a problem statement.
func Problem(fragment string) Partial {
	doc, err := parse(fragment)
	if err != nil {
		return Partial{}
	}
	return Partial{
		Description: description(doc.Selection),
		Constraints: constraints(doc.Selection),
		Examples:    examples(doc.Selection),
	}
}

func description(doc *goquery.Selection) *string {
	var paragraphs []string
	for _, p := range elements(doc, "p") {
		text := htmlutil.GetText(p)
		if strings.Contains(text, "Example") {
			joined := strings.Join(paragraphs, "\n")
			return &joined
		}
		cleaned := htmlutil.CleanText(text)
		if cleaned != "" {
			paragraphs = append(paragraphs, cleaned)
		}
	}
	return nil
}

var constraintMarkup = strings.NewReplacer(
	"Constraints:", "",
	"<sup>", "**",
	"</sup>", "",
	"<br/>", "\n",
)

// Constraints returns the non-empty lines of the last paragraph mentioning "Constraints",
// superscripts rendered as powers.
func Constraints(fragment string) []string {
	doc, err := parse(fragment)
	if err != nil {
		return []string{}
	}
	return constraints(doc.Selection)
}

func constraints(doc *goquery.Selection) []string {
	lines := []string{}
	for _, p := range elements(doc, "p") {
		if !strings.Contains(htmlutil.GetText(p), "Constraints") {
			continue
		}

		rendered, err := goquery.OuterHtml(goquery.NewDocumentFromNode(p).Selection)
		if err != nil {
			continue
		}
		rewritten, err := parse(constraintMarkup.Replace(rendered))
		if err != nil {
			continue
		}

		lines = []string{}
		for _, line := range strings.Split(rewritten.Text(), "\n") {
			line = strings.TrimSpace(strings.ReplaceAll(line, "\u00a0", " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func examples(doc *goquery.Selection) map[string]string {
	nodes := elements(doc, "p", "pre")
	out := map[string]string{}
	index := 1
	for i, node := range nodes {
		if node.Data != "p" || !strings.Contains(strings.ToLower(htmlutil.GetText(node)), "example") {
			continue
		}
		var pre *html.Node
		for _, next := range nodes[i+1:] {
			if next.Data == "pre" {
				pre = next
				break
			}
		}
		if pre == nil {
			return nil
		}
		out[fmt.Sprintf("Example %d", index)] = strings.TrimSpace(htmlutil.GetText(pre))
		index++
	}
	return out
}
