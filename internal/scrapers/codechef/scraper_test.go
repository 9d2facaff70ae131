package codechef

import (
	"context"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/browser/browsertest"
	"cqscraper/internal/components/store"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const problemList = `{"status": "success", "data": [
	{"code": "FOODCOST", "name": "Food Cost", "difficulty_rating": 1200, "total_submissions": 900, "contest_code": "START1"},
	{"code": "GONE", "name": "Gone", "difficulty_rating": 3000}
]}`

const foodCost = `{"status": "success", "difficultyThreshold": 2, "problem_author": "setter",
	"languages_supported": "C++ 17, PYTH 3",
	"problemComponents": {
		"statement": "Find the cost.", "constraints": "1 <= N <= 10",
		"inputFormat": "One line.", "outputFormat": "One number.",
		"sampleTestCases": [{"id": "0", "input": "1", "output": "2"}]
	}
}`

type fixture struct {
	server  *httptest.Server
	browser *browsertest.Fake
	scraper *Scraper
	tel     *telemetry.Recorder
	// expired lists the csrf tokens the submissions api rejects.
	expired map[string]bool
	logins  int
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{browser: browsertest.New(), tel: &telemetry.Recorder{}, expired: map[string]bool{}}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/list/problems":
			require.Equal(t, "50", r.URL.Query().Get("limit"))
			if r.URL.Query().Get("page") != "0" {
				w.Write([]byte(`{"status": "success", "data": []}`))
				return
			}
			w.Write([]byte(problemList))
		case "/api/contests/PRACTICE/problems/FOODCOST":
			w.Write([]byte(foodCost))
		case "/api/submissions/PRACTICE/FOODCOST":
			if f.expired[r.Header.Get("X-Csrf-Token")] {
				w.Write([]byte(`{"status": "apierror", "message": "session expired"}`))
				return
			}
			require.Equal(t, "10", r.URL.Query().Get("limit"))
			if r.URL.Query().Get("page") != "1" {
				w.Write([]byte(`{"status": "success", "data": []}`))
				return
			}
			w.Write([]byte(`{"status": "success", "data": [
				{"id": "11", "tooltip": "accepted", "language": "C++17"},
				{"id": "12", "tooltip": "wrong answer", "language": "C++17"},
				{"id": "13", "tooltip": "accepted", "language": "C++17"}
			]}`))
		case "/api/submission-code/11", "/api/submission-code/13":
			w.Write([]byte(`{"data": {"language": {"full_name": "C++ 17"}, "code": "int main() {}"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.server.Close)

	f.browser.OnClick = func(fake *browsertest.Fake, loc browser.Locator) error {
		if loc == browser.ByRole("button", "LOGIN") {
			f.logins++
			fake.AddRequest(f.server.URL+"/api/user/me", http.Header{
				"Cookie":       {fmt.Sprintf("SESS=%d", f.logins)},
				"X-Csrf-Token": {fmt.Sprintf("token-%d", f.logins)},
			})
		}
		return nil
	}

	scraper, err := New(Options{
		BaseUrl:       f.server.URL,
		Username:      "chef",
		Password:      "secret",
		RatePerSecond: 1000,
		HeaderTimeout: 100 * time.Millisecond,
		PollInterval:  time.Millisecond,
	}, f.browser, f.tel)
	require.Nil(t, err)
	f.scraper = scraper
	return f
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)
	items, err := f.scraper.Catalog(context.Background(), 0)
	require.Nil(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "FOODCOST", items[0].Name)
	require.Equal(t, "Food Cost", items[0].Title)

	items, err = f.scraper.Catalog(context.Background(), 1)
	require.Nil(t, err)
	require.Empty(t, items)
}

func TestFetch(t *testing.T) {
	f := newFixture(t)
	items, err := f.scraper.Catalog(context.Background(), 0)
	require.Nil(t, err)

	record, err := f.scraper.Fetch(context.Background(), items[0])
	require.Nil(t, err)

	require.Equal(t, "FOODCOST", record["title_slug"])
	require.Equal(t, float64(1200), record["difficulty_rating"])
	require.Equal(t, float64(2), record["difficulty_threshold"])
	require.Equal(t, "Find the cost.", record["problem_description"])
	require.Equal(t, []string{"C++ 17", "PYTH 3"}, record["available_languages"])
	require.Equal(t, []any{map[string]any{"id": "0", "input": "1", "output": "2"}}, record["testcases"])
	require.Nil(t, record["hints"])

	// both accepted submissions carry the same code
	expected := map[string][]any{"C++ 17": {"int main() {}"}}
	if diff := cmp.Diff(expected, record["user_solutions"]); diff != "" {
		t.Fatal(diff)
	}

	source := record["source"].(map[string]any)
	require.Equal(t, "setter", source["problem_author"])
	require.Equal(t, "START1", source["contest_code"])

	require.Equal(t, []string{
		"navigate " + f.server.URL + "/problems/FOODCOST",
		"click " + browser.ByRole("tab", "Submissions").String(),
		"click " + browser.ByRole("button", "Log In").String(),
		"fill " + browser.ByCSS(`input[type="text"]`).String(),
		"fill " + browser.ByCSS(`input[type="password"]`).String(),
		"click " + browser.ByRole("button", "LOGIN").String(),
	}, f.browser.Actions)
}

func TestFetchRefreshesExpiredSession(t *testing.T) {
	f := newFixture(t)
	f.expired["token-1"] = true
	items, err := f.scraper.Catalog(context.Background(), 0)
	require.Nil(t, err)

	record, err := f.scraper.Fetch(context.Background(), items[0])
	require.Nil(t, err)
	require.NotNil(t, record["user_solutions"])
	require.Equal(t, 2, f.scraper.session.Logins())
	require.True(t, f.tel.Has("warning", "state.refresh"))
}

func TestFetchRefreshIsBounded(t *testing.T) {
	f := newFixture(t)
	f.expired["token-1"] = true
	f.expired["token-2"] = true
	items, err := f.scraper.Catalog(context.Background(), 0)
	require.Nil(t, err)

	// the record is stored without solutions
	record, err := f.scraper.Fetch(context.Background(), items[0])
	require.Nil(t, err)
	require.Nil(t, record["user_solutions"])
	require.Equal(t, "Find the cost.", record["problem_description"])
	require.Equal(t, 2, f.scraper.session.Logins())
	require.True(t, f.tel.Has("broken", "state.refresh"))
}

func TestCrawlSkipsMissingProblemDetails(t *testing.T) {
	f := newFixture(t)
	s := store.NewMemory()
	driver := crawl.NewDriver(f.scraper, s, crawl.Options{
		Prefix: "CQ-Scrapping/codechef",
		Cursor: crawl.Cursor{Start: 0, End: 10},
	}, f.tel)
	summary, err := driver.Run(context.Background())
	require.Nil(t, err)
	require.Equal(t, crawl.Summary{Pages: 1, Stored: 2}, summary)

	gone, err := store.GetJSON[map[string]any](context.Background(), s, "CQ-Scrapping/codechef/GONE.json")
	require.Nil(t, err)
	require.Equal(t, "Gone", gone["title"])
	require.Nil(t, gone["problem_description"])
}
