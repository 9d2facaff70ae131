package interviewbit

import (
	"context"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/chrono"
	"cqscraper/internal/crawl"
	"cqscraper/internal/extract"
	"cqscraper/internal/session"
	"cqscraper/pkg/textutil"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const report_scraper_hints = "scraper.hints"

// unlocks are the links and buttons that make the problem page request every hint.
var unlocks = []browser.Locator{
	browser.ByRole("link", "Hints"),
	browser.ByText("Unlock Hint"),
	browser.ByText("Solution Approach"),
	browser.ByText("Unlock Solution Approach"),
	browser.ByText("Complete Solution"),
	browser.ByText("Unlock Complete Solution"),
}

type hintIds struct {
	hint             string
	solutionApproach string
	completeSolution string
}

// hintIdsOf picks the hints by the words in their titles.
func hintIdsOf(meta gjson.Result) hintIds {
	var ids hintIds
	meta.ForEach(func(_, hint gjson.Result) bool {
		title := hint.Get("title").String()
		id := hint.Get("id").String()
		if textutil.MatchName(title, []string{"hint"}) {
			ids.hint = id
		}
		if textutil.MatchName(title, []string{"approach"}) {
			ids.solutionApproach = id
		}
		if textutil.MatchName(title, []string{"complete"}) {
			ids.completeSolution = id
		}
		return true
	})
	return ids
}

func (ids hintIds) all() []string {
	var out []string
	for _, id := range []string{ids.hint, ids.solutionApproach, ids.completeSolution} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

type hints struct {
	Hint             *string
	SolutionApproach *string
	Solutions        map[string]string
}

// hintId returns the id following "hints" in the path of a hint url.
func hintId(rawUrl string) string {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part == "hints" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func hintsPath(slug string) string {
	return fmt.Sprintf("/v2/problems/%s/hints", slug)
}

// captured returns the hint documents the browser received for the problem by hint id,
// ignoring the first skip responses which belong to earlier visits.
func (s *Scraper) captured(slug string, skip int) (map[string]gjson.Result, error) {
	out := map[string]gjson.Result{}
	all := s.browser.Responses(hintsPath(slug))
	if skip > len(all) {
		skip = len(all)
	}
	for _, res := range all[skip:] {
		if res.Status == http.StatusUnauthorized || res.Status == http.StatusForbidden {
			return nil, crawl.AuthExpired(fmt.Errorf("hints of %s: status %d", slug, res.Status))
		}
		if res.Status != http.StatusOK || !gjson.ValidBytes(res.Body) {
			continue
		}
		id := hintId(res.Url)
		if id != "" {
			out[id] = gjson.ParseBytes(res.Body)
		}
	}
	return out, nil
}

// Hints opens the problem page in the logged in browser, clicks through every hint and
// reads the hint documents the page requested. Hints that were not received before the
// timeout stay nil.
func (s *Scraper) Hints(ctx context.Context, slug string, meta gjson.Result) (hints, error) {
	ids := hintIdsOf(meta)
	if len(ids.all()) == 0 {
		return hints{}, nil
	}

	responses, err := session.Do(ctx, s.session, func(ctx context.Context, _ session.Credentials) (map[string]gjson.Result, error) {
		return s.openHints(ctx, slug, ids)
	})
	if err != nil {
		return hints{}, err
	}

	var out hints
	if hint, ok := responses[ids.hint]; ok {
		out.Hint = markdown(hint)
	}
	if approach, ok := responses[ids.solutionApproach]; ok {
		out.SolutionApproach = markdown(approach)
	}
	if complete, ok := responses[ids.completeSolution]; ok {
		out.Solutions = solutions(complete.Get("hint.complete_solution"))
	}
	return out, nil
}

func (s *Scraper) openHints(ctx context.Context, slug string, ids hintIds) (map[string]gjson.Result, error) {
	earlier := len(s.browser.Responses(hintsPath(slug)))
	err := s.browser.Navigate(ctx, fmt.Sprintf("%s/problems/%s", s.baseUrl, slug))
	if err != nil {
		return nil, err
	}
	for _, loc := range unlocks {
		// locked or already unlocked hints have no button
		if err := s.browser.Click(ctx, loc); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.tel.ReportDebug("hint unlock", slug, loc.String(), err)
		}
	}

	var responses map[string]gjson.Result
	err = chrono.Poll(ctx, s.opts.PollInterval, s.opts.HintTimeout, func(ctx context.Context) (bool, error) {
		var err error
		responses, err = s.captured(slug, earlier)
		if err != nil {
			return false, err
		}
		for _, id := range ids.all() {
			if _, ok := responses[id]; !ok {
				return false, nil
			}
		}
		return true, nil
	})
	if errors.Is(err, chrono.ErrPollTimeout) {
		s.tel.ReportWarning(report_scraper_hints, err, slug, len(responses))
		return responses, nil
	}
	return responses, err
}

func markdown(doc gjson.Result) *string {
	content := doc.Get("hint.markdown_content")
	if !content.Exists() || content.Type == gjson.Null {
		return nil
	}
	text := content.String()
	return &text
}

// solutions maps a language name to the editorial code of that language.
func solutions(complete gjson.Result) map[string]string {
	if !complete.IsObject() {
		return nil
	}
	editorials := complete.Get("editorial_solutions")
	out := map[string]string{}
	complete.Get("language_names").ForEach(func(id, name gjson.Result) bool {
		content := editorials.Get(gjson.Escape(id.String()) + ".content")
		if content.Exists() {
			out[name.String()] = extract.FirstDivText(content.String())
		}
		return true
	})
	return out
}
