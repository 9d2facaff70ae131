package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const statement = `
<p>Given an array <code>nums</code> of size n, return the majority element.</p>
<p>The majority element appears more than&nbsp;n / 2 times.</p>
<p>&nbsp;</p>
<p><strong class="example">Example 1:</strong></p>
<pre><strong>Input:</strong> nums = [3,2,3]
<strong>Output:</strong> 3
</pre>
<p><strong class="example">Example 2:</strong></p>
<pre>
Input: nums = [2,2,1,1,1,2,2]
Output: 2</pre>
<p><strong>Constraints:</strong></p>
<p>Constraints: 1 &lt;= n &lt;= 5 * 10<sup>4</sup><br/>-10<sup>9</sup> &lt;= nums[i] &lt;= 10<sup>9</sup><br/></p>
`

func TestConstraints(t *testing.T) {
	require.Equal(t, []string{"1 <= n <= 100"}, Constraints(`<p>Constraints: 1 &lt;= n &lt;= 100<br/></p>`))
	require.Equal(
		t,
		[]string{"1 <= n <= 100", "1 <= q <= 10"},
		Constraints(`<div><p>Constraints: 1 &lt;= n &lt;= 100<br/><br/>1 &lt;= q &lt;= 10</p></div>`),
	)
	require.Equal(t, []string{}, Constraints(`<p>no limits here</p>`))
}

func TestProblem(t *testing.T) {
	partial := Problem(statement)

	require.NotNil(t, partial.Description)
	require.Equal(
		t,
		"Given an array nums of size n, return the majority element.\nThe majority element appears more than n / 2 times.",
		*partial.Description,
	)

	expected := []string{"1 <= n <= 5 * 10**4", "-10**9 <= nums[i] <= 10**9"}
	if diff := cmp.Diff(expected, partial.Constraints); diff != "" {
		t.Fatal(diff)
	}

	expectedExamples := map[string]string{
		"Example 1": "Input: nums = [3,2,3]\nOutput: 3",
		"Example 2": "Input: nums = [2,2,1,1,1,2,2]\nOutput: 2",
	}
	if diff := cmp.Diff(expectedExamples, partial.Examples); diff != "" {
		t.Fatal(diff)
	}
}

func TestProblemMarkupDrift(t *testing.T) {
	partial := Problem(`<div>statement without paragraphs</div>`)
	require.Nil(t, partial.Description)
	require.Empty(t, partial.Constraints)
	require.Empty(t, partial.Examples)

	// an example heading without a block after it
	partial = Problem(`<p>Some text</p><p>Example 1:</p>`)
	require.Nil(t, partial.Examples)
	require.Equal(t, "Some text", *partial.Description)
}

func TestMarkdownSections(t *testing.T) {
	sections := MarkdownSections(`
<div id="problem_description_markdown_content_value"> Find the sum. </div>
<div id="problem_constraints_markdown_content_value">1 &lt;= A &lt;= 10
1 &lt;= B &lt;= 10</div>
<div id="input_format_markdown_content_value">Two integers.</div>
<div id="example_input_markdown_content_value">
	<p>Input 1:</p><pre> A = 1 B = 2 </pre>
	<p>Input 2:</p><pre>A = 3 B = 4</pre>
</div>
<div id="example_output_markdown_content_value">
	<p></p>
	<p>Output 1:</p><pre>3</pre>
</div>
<div id="example_explanation_markdown_content_value">
	<p>Explanation 1:</p>
</div>`)

	require.Equal(t, "Find the sum.", *sections.Description)
	require.Equal(t, []string{"1 <= A <= 10", "1 <= B <= 10"}, sections.Constraints)
	require.Equal(t, "Two integers.", *sections.InputFormat)
	require.Nil(t, sections.OutputFormat)
	require.Equal(t, map[string]string{"Input 1:": "A = 1 B = 2", "Input 2:": "A = 3 B = 4"}, sections.ExampleInput)
	require.Equal(t, map[string]string{"Output 1:": "3"}, sections.ExampleOutput)
	require.Nil(t, sections.ExampleExplanation)
}

func TestPageHelpers(t *testing.T) {
	page := `<html><head><style>body{}</style>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"title":"x"}}}</script>
<script>window.__INTERVIEWBIT__.problemsData = {"meta": {"text": "a }; b"}, "hints": {}};
window.other = 1;</script>
</head><body><p style="color: red">text</p><a id="editorial" href="/editorial/x">e</a></body></html>`

	stripped := RemoveCSS(page)
	require.NotContains(t, stripped, "<style>")
	require.NotContains(t, stripped, "color: red")
	require.Contains(t, stripped, "<p>text</p>")

	data, ok := NextData(page)
	require.True(t, ok)
	require.Equal(t, "x", data.Get("props.pageProps.title").String())

	problems, ok := AssignedJSON(page, "window.__INTERVIEWBIT__.problemsData")
	require.True(t, ok)
	require.Equal(t, "a }; b", problems.Get("meta.text").String())

	_, ok = AssignedJSON(page, "window.missing")
	require.False(t, ok)

	href, ok := Anchor(page, "a#editorial")
	require.True(t, ok)
	require.Equal(t, "/editorial/x", href)

	require.Equal(t, "int main() {}", FirstDivText(`<div> int main() {} </div><p>ignored</p>`))
	require.Equal(t, "plain", FirstDivText("plain"))
}

func TestTabs(t *testing.T) {
	tabs := Tabs(`
<h2 class="tabtitle responsive-tabs__heading">C++</h2>
<div class="tabcontent"><div class="c-pre">int main() {}</div></div>
<h2 class="tabtitle responsive-tabs__heading responsive-tabs__heading--active">Java</h2>
<div class="c-pre">class Main {}</div>
<h2 class="tabtitle responsive-tabs__heading">C++</h2>
<div class="c-pre">int solve() {}</div>
<h2>Unrelated</h2>
<div class="c-pre">ignored</div>`)

	expected := map[string][]string{
		"c++":  {"int main() {}", "int solve() {}"},
		"java": {"class Main {}"},
	}
	if diff := cmp.Diff(expected, tabs); diff != "" {
		t.Fatal(diff)
	}
}
