package leetcode

import (
	"context"
	"cqscraper/internal/components/store"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const questionList = `{"data": {"problemsetQuestionList": {"total": 2, "questions": [
	{"acRate": 53.2, "difficulty": "Easy", "likes": 10, "dislikes": 1, "frontendQuestionId": "1", "paidOnly": false,
	 "title": "Two Sum", "titleSlug": "two-sum", "topicTags": [{"name": "Array", "slug": "array"}, {"name": "Hash Table", "slug": "hash-table"}],
	 "hasSolution": true, "hasVideoSolution": false},
	{"acRate": 40.1, "difficulty": "Medium", "frontendQuestionId": "2", "title": "Add Two Numbers", "titleSlug": "add-two-numbers", "topicTags": []}
]}}}`

const twoSum = `{"data": {"question": {
	"exampleTestcaseList": ["[2,7,11,15]\n9"],
	"metaData": "{\"name\": \"twoSum\"}",
	"content": "<p>Given an array of integers.</p><p><strong>Example 1:</strong></p><pre>Input: nums = [2,7,11,15]</pre><p><strong>Constraints:</strong></p><p>Constraints: 2 &lt;= nums.length &lt;= 10<sup>4</sup></p>",
	"codeSnippets": [{"langSlug": "cpp", "code": "class Solution {};"}, {"langSlug": "python3", "code": "class Solution:"}],
	"hints": ["Use a map."],
	"companyTagStats": null,
	"stats": "{\"totalAccepted\": \"1M\"}"
}}}`

func newServer(t *testing.T, requests *[]string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/graphql/", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.Nil(t, err)

		var req struct {
			Name      string         `json:"operationName"`
			Variables map[string]any `json:"variables"`
		}
		require.Nil(t, json.Unmarshal(body, &req))
		*requests = append(*requests, fmt.Sprintf("%s %v", req.Name, req.Variables["skip"]))

		switch req.Name {
		case "problemsetQuestionList":
			if req.Variables["skip"] != float64(0) {
				w.Write([]byte(`{"data": {"problemsetQuestionList": {"total": 2, "questions": []}}}`))
				return
			}
			require.Equal(t, "all-code-essentials", req.Variables["categorySlug"])
			require.Equal(t, float64(PageSize), req.Variables["limit"])
			w.Write([]byte(questionList))
		case "consolePanelConfig":
			if req.Variables["titleSlug"] == "two-sum" {
				w.Write([]byte(twoSum))
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCatalog(t *testing.T) {
	var requests []string
	server := newServer(t, &requests)
	scraper, err := New(Options{BaseUrl: server.URL, RatePerSecond: 100}, &telemetry.Recorder{})
	require.Nil(t, err)

	items, err := scraper.Catalog(context.Background(), 0)
	require.Nil(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "1_two-sum", items[0].Name)
	require.Equal(t, "two-sum", items[0].Slug)
	require.Equal(t, "Easy", items[0].Difficulty)
	require.Equal(t, "2_add-two-numbers", items[1].Name)

	require.Equal(t, "leetcode/1_two-sum.json", store.Key("leetcode", items[0].Name))

	items, err = scraper.Catalog(context.Background(), 50)
	require.Nil(t, err)
	require.Empty(t, items)
}

func TestFetch(t *testing.T) {
	var requests []string
	server := newServer(t, &requests)
	scraper, err := New(Options{BaseUrl: server.URL, RatePerSecond: 100}, &telemetry.Recorder{})
	require.Nil(t, err)

	items, err := scraper.Catalog(context.Background(), 0)
	require.Nil(t, err)

	record, err := scraper.Fetch(context.Background(), items[0])
	require.Nil(t, err)

	require.Equal(t, "two-sum", record["title_slug"])
	require.Equal(t, []string{"Array", "Hash Table"}, record["tags"])
	require.Equal(t, "Given an array of integers.", record["problem_description"])
	require.Equal(t, []string{"2 <= nums.length <= 10**4"}, record["constraints"])
	require.Equal(t, map[string]string{"cpp": "class Solution {};", "python3": "class Solution:"}, record["code_snippets"])
	require.Equal(t, map[string]any{"name": "twoSum"}, record["meta_data"])
	require.Nil(t, record["company_tag_stats"])

	expectedTestcases := map[string]any{
		"example_testcases": []any{"[2,7,11,15]\n9"},
		"half_cleaned":      map[string]string{"Example 1": "Input: nums = [2,7,11,15]"},
	}
	if diff := cmp.Diff(expectedTestcases, record["testcases"]); diff != "" {
		t.Fatal(diff)
	}

	source := record["source"].(map[string]any)
	require.Equal(t, "1", source["leetcode_question_id"])
	require.Equal(t, server.URL+"/problems/two-sum/", source["url"])
	require.Equal(t, 53.2, source["ac_rate"])
}

func TestFetchDetailFailure(t *testing.T) {
	var requests []string
	server := newServer(t, &requests)
	tel := &telemetry.Recorder{}
	scraper, err := New(Options{BaseUrl: server.URL, RatePerSecond: 100}, tel)
	require.Nil(t, err)

	items, err := scraper.Catalog(context.Background(), 0)
	require.Nil(t, err)

	// the listing fields survive a failed detail request
	record, err := scraper.Fetch(context.Background(), items[1])
	require.Nil(t, err)
	require.Equal(t, "add-two-numbers", record["title_slug"])
	require.Nil(t, record["html_content"])
	require.Nil(t, record["problem_description"])
	require.True(t, tel.Has("warning", "steps.run"))
}

func TestCrawl(t *testing.T) {
	var requests []string
	server := newServer(t, &requests)
	scraper, err := New(Options{BaseUrl: server.URL, RatePerSecond: 100}, &telemetry.Recorder{})
	require.Nil(t, err)

	s := store.NewMemory()
	driver := crawl.NewDriver(scraper, s, crawl.Options{
		Prefix: "CQ-Scrapping/leetcode/new_upload",
		Cursor: crawl.Cursor{Start: 0, End: 3060, Step: PageSize},
	}, &telemetry.Recorder{})
	summary, err := driver.Run(context.Background())
	require.Nil(t, err)
	require.Equal(t, 1, summary.Pages)
	require.Equal(t, 2, summary.Stored)

	keys, err := s.List(context.Background(), "CQ-Scrapping/leetcode/new_upload")
	require.Nil(t, err)
	require.Equal(t, []string{
		"CQ-Scrapping/leetcode/new_upload/1_two-sum.json",
		"CQ-Scrapping/leetcode/new_upload/2_add-two-numbers.json",
	}, keys)
}
