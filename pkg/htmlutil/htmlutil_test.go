package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "  Given   an array nums  ", expect: "Given an array nums"},
		{input: "line one\n\n\n  line two", expect: "line one\nline two"},
		{input: "tab\tseparated", expect: "tab\tseparated"},
		{input: "first  \n\t second\n \n third", expect: "first\nsecond\nthird"},
		{input: "\x00bell\x07", expect: "bell"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, CleanText(test.input))
	}
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<ol>
			<li><a href="/practice/?problem=Two-Sum">Find pair
				with given sum</a></li>
			<li><a href="https://example.com/x">External</a></li>
			<li><a href="%zz">Broken</a></li>
			<li><a name="top">Anchor without link</a></li>
		</ol>
	`))
	require.Nil(t, err)

	base, err := url.Parse("https://www.techiedelight.com/")
	require.Nil(t, err)

	anchors := GetAnchors(base, doc.Find("a"))
	require.Len(t, anchors, 2)
	require.Equal(t, "Find pair with given sum", anchors[0].Name)
	require.Equal(t, "https://www.techiedelight.com/practice/?problem=Two-Sum", anchors[0].Url.String())
	require.Equal(t, "https://example.com/x", anchors[1].Url.String())
}
