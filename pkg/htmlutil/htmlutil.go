package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns the concatenated text nodes under node, without any normalization.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

type Anchor struct {
	Name string
	Url  *url.URL
}

var innerWhitespace = regexp.MustCompile(`[ \t\r\f\v]{2,}`)
var lineEdges = regexp.MustCompile(`[ \t\r\f\v]*\n[ \t\r\f\v]*`)
var blankLines = regexp.MustCompile(`\n{2,}`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if c == '\n' || unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText replaces non-breaking spaces, drops non-printable characters, strips spaces around
// line breaks, collapses runs of spaces and blank lines and trims the result.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = removeNonPrintable(s)
	s = lineEdges.ReplaceAllString(s, "\n")
	s = innerWhitespace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// GetAnchors resolves the href of every anchor in sel against baseUrl, anchors with
// missing or unparsable hrefs are skipped.
func GetAnchors(baseUrl *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href, ok := "", false
		for _, a := range n.Attr {
			if a.Key == "href" {
				href, ok = a.Val, true
				break
			}
		}
		if !ok {
			continue
		}

		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		if baseUrl != nil {
			link = baseUrl.ResolveReference(link)
		}

		anchors = append(anchors, Anchor{
			Name: CleanText(strings.ReplaceAll(GetText(n), "\n", " ")),
			Url:  link,
		})
	}
	return anchors
}
