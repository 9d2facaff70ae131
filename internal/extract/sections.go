package extract

import (
	"cqscraper/pkg/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sections reads a markdown rendered statement where every section is a div with a known
// id. Missing sections are nil.
type Sections struct {
	Description        *string
	Constraints        []string
	InputFormat        *string
	OutputFormat       *string
	ExampleInput       map[string]string
	ExampleOutput      map[string]string
	ExampleExplanation map[string]string
}

func sectionText(doc *goquery.Document, id string) *string {
	div := doc.Find("div#" + id).First()
	if div.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(div.Text())
	return &text
}

// labelled maps the text of every non-empty paragraph of the section to the text of the
// <pre> sibling following it. A paragraph without one makes the whole section nil.
func labelled(doc *goquery.Document, id string) map[string]string {
	div := doc.Find("div#" + id).First()
	if div.Length() == 0 {
		return nil
	}

	out := map[string]string{}
	complete := true
	div.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		key := strings.TrimSpace(p.Text())
		if key == "" {
			return true
		}
		pre := p.NextAllFiltered("pre").First()
		if pre.Length() == 0 {
			complete = false
			return false
		}
		out[key] = strings.TrimSpace(pre.Text())
		return true
	})
	if !complete {
		return nil
	}
	return out
}

func MarkdownSections(fragment string) Sections {
	doc, err := parse(fragment)
	if err != nil {
		return Sections{}
	}

	var constraints []string
	if text := sectionText(doc, "problem_constraints_markdown_content_value"); text != nil {
		constraints = strings.Split(*text, "\n")
		for i, line := range constraints {
			constraints[i] = htmlutil.CleanText(line)
		}
	}

	return Sections{
		Description:        sectionText(doc, "problem_description_markdown_content_value"),
		Constraints:        constraints,
		InputFormat:        sectionText(doc, "input_format_markdown_content_value"),
		OutputFormat:       sectionText(doc, "output_format_markdown_content_value"),
		ExampleInput:       labelled(doc, "example_input_markdown_content_value"),
		ExampleOutput:      labelled(doc, "example_output_markdown_content_value"),
		ExampleExplanation: labelled(doc, "example_explanation_markdown_content_value"),
	}
}
