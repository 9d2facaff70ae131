package submissions

import (
	"context"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type history struct {
	pages    [][]Submission
	requests []int
}

func (h *history) list(_ context.Context, page int) (Page[int], error) {
	h.requests = append(h.requests, page)
	if page >= len(h.pages) {
		return Page[int]{}, nil
	}
	return Page[int]{Items: h.pages[page], Next: page + 1}, nil
}

func sub(id int, language, verdict string) Submission {
	return Submission{Id: fmt.Sprint(id), Language: language, Verdict: verdict}
}

func TestCollectStopsAtLimit(t *testing.T) {
	// 12 submissions, 5 of them accepted, the fifth on the third of four pages
	h := &history{pages: [][]Submission{
		{sub(1, "cpp", "accepted"), sub(2, "cpp", "wrong"), sub(3, "python", "accepted")},
		{sub(4, "java", "runtime"), sub(5, "python", "accepted"), sub(6, "cpp", "wrong")},
		{sub(7, "cpp", "wrong"), sub(8, "java", "accepted"), sub(9, "cpp", "accepted")},
		{sub(10, "cpp", "wrong"), sub(11, "cpp", "wrong"), sub(12, "cpp", "wrong")},
	}}

	collector := Collector[int]{
		List:     h.list,
		Accepted: "accepted",
		Code: func(_ context.Context, s Submission) (Solution, error) {
			return Solution{Code: "code " + s.Id}, nil
		},
	}
	grouped, err := collector.Collect(context.Background(), 0)
	require.Nil(t, err)

	expected := map[string][]any{
		"cpp":    {"code 1", "code 9"},
		"python": {"code 3", "code 5"},
		"java":   {"code 8"},
	}
	if diff := cmp.Diff(expected, grouped); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, []int{0, 1, 2}, h.requests)
}

func TestCollectLimitInsidePage(t *testing.T) {
	page := []Submission{}
	for i := 0; i < 8; i++ {
		page = append(page, sub(i, "cpp", "Correct"))
	}
	h := &history{pages: [][]Submission{page, page}}

	grouped, err := Collector[int]{List: h.list, Accepted: "Correct"}.Collect(context.Background(), 0)
	require.Nil(t, err)
	require.Len(t, grouped["cpp"], 5)
	require.Equal(t, page[4], grouped["cpp"][4])
	require.Equal(t, []int{0}, h.requests)
}

func TestCollectStopsOnRepeatedPage(t *testing.T) {
	repeated := []Submission{sub(1, "cpp", "wrong"), sub(2, "cpp", "accepted")}
	h := &history{pages: [][]Submission{repeated, repeated, repeated}}

	grouped, err := Collector[int]{List: h.list, Accepted: "accepted"}.Collect(context.Background(), 0)
	require.Nil(t, err)
	require.Len(t, grouped["cpp"], 1)
	require.Equal(t, []int{0, 1}, h.requests)
}

func TestCollectMaxPages(t *testing.T) {
	var pages [][]Submission
	for i := 0; i < 40; i++ {
		pages = append(pages, []Submission{sub(i, "cpp", "wrong")})
	}
	h := &history{pages: pages}

	grouped, err := Collector[int]{List: h.list, Accepted: "accepted"}.Collect(context.Background(), 1)
	require.Nil(t, err)
	require.Empty(t, grouped)
	require.Len(t, h.requests, DefaultMaxPages)
	require.Equal(t, 1, h.requests[0])
}

func TestCollectDedupeAndCodeFailures(t *testing.T) {
	h := &history{pages: [][]Submission{{
		sub(1, "C++17", "accepted"),
		sub(2, "C++17", "accepted"),
		sub(3, "C++17", "accepted"),
		sub(4, "PyPy3", "accepted"),
	}}}
	tel := &telemetry.Recorder{}

	collector := Collector[int]{
		List:     h.list,
		Accepted: "accepted",
		Dedupe:   true,
		Tel:      tel,
		Code: func(_ context.Context, s Submission) (Solution, error) {
			if s.Id == "4" {
				return Solution{}, crawl.Missing("submission code")
			}
			// the language of the code response wins over the listing
			return Solution{Language: "C++ 17", Code: "same code"}, nil
		},
	}
	grouped, err := collector.Collect(context.Background(), 0)
	require.Nil(t, err)
	require.Equal(t, map[string][]any{"C++ 17": {"same code"}}, grouped)
	require.True(t, tel.Has("warning", report_collector_code))
}

func TestCollectListError(t *testing.T) {
	collector := Collector[int]{
		List: func(context.Context, int) (Page[int], error) {
			return Page[int]{}, crawl.AuthExpired(errors.New("apierror"))
		},
		Accepted: "accepted",
	}
	_, err := collector.Collect(context.Background(), 0)
	require.Equal(t, crawl.KindAuth, crawl.KindOf(err))
}
