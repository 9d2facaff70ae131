package extract

import (
	"cqscraper/pkg/htmlutil"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// RemoveCSS drops every <style> element and style attribute from a page.
func RemoveCSS(page string) string {
	doc, err := parse(page)
	if err != nil {
		return page
	}
	doc.Find("style").Remove()
	doc.Find("[style]").RemoveAttr("style")
	out, err := doc.Html()
	if err != nil {
		return page
	}
	return out
}

// NextData returns the json embedded in the __NEXT_DATA__ script of a next.js page.
func NextData(page string) (gjson.Result, bool) {
	doc, err := parse(page)
	if err != nil {
		return gjson.Result{}, false
	}
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return gjson.Result{}, false
	}
	text := script.Text()
	if !gjson.Valid(text) {
		return gjson.Result{}, false
	}
	return gjson.Parse(text), true
}

// AssignedJSON finds `<variable> = {...};` in any script of the page and returns the object.
func AssignedJSON(page, variable string) (gjson.Result, bool) {
	pattern, err := regexp.Compile(`(?s)` + regexp.QuoteMeta(variable) + `\s*=\s*(\{.*?\});`)
	if err != nil {
		return gjson.Result{}, false
	}
	doc, err := parse(page)
	if err != nil {
		return gjson.Result{}, false
	}

	var found gjson.Result
	ok := false
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		text := script.Text()
		if !strings.Contains(text, variable) {
			return true
		}
		// the lazy match may stop at a "};" inside a string, so widen it until it parses
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			start := loc[2]
			for end := loc[3]; end <= len(text); {
				candidate := text[start:end]
				if gjson.Valid(candidate) {
					found = gjson.Parse(candidate)
					ok = true
					return false
				}
				next := strings.Index(text[end:], "};")
				if next < 0 {
					break
				}
				end += next + 1
			}
		}
		return true
	})
	return found, ok
}

// Anchor returns the href of the first element matching selector.
func Anchor(page, selector string) (string, bool) {
	doc, err := parse(page)
	if err != nil {
		return "", false
	}
	return doc.Find(selector).First().Attr("href")
}

// FirstDivText returns the trimmed text of the first <div> of a fragment, or the fragment
// itself when it has none.
func FirstDivText(fragment string) string {
	doc, err := parse(fragment)
	if err != nil {
		return fragment
	}
	div := doc.Find("div").First()
	if div.Length() == 0 {
		return fragment
	}
	return strings.TrimSpace(div.Text())
}

// Tabs groups the code blocks of a tabbed editorial by their lowercased tab title. Each
// h2.tabtitle heading owns the first div.c-pre after it.
func Tabs(page string) map[string][]string {
	out := map[string][]string{}
	doc, err := parse(page)
	if err != nil {
		return out
	}

	nodes := elements(doc.Selection, "h2", "div")
	for i, node := range nodes {
		heading := goquery.NewDocumentFromNode(node).Selection
		if node.Data != "h2" || !heading.HasClass("tabtitle") {
			continue
		}
		language := strings.ToLower(strings.TrimSpace(heading.Text()))
		for _, next := range nodes[i+1:] {
			if next.Data == "div" && goquery.NewDocumentFromNode(next).Selection.HasClass("c-pre") {
				out[language] = append(out[language], htmlutil.GetText(next))
				break
			}
		}
	}
	return out
}
