package leetcode

import (
	"context"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/crawl"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

const PageSize = 50

const questionListQuery = `
query problemsetQuestionList($categorySlug: String, $limit: Int, $skip: Int, $filters: QuestionListFilterInput) {
  problemsetQuestionList: questionList(categorySlug: $categorySlug, limit: $limit, skip: $skip, filters: $filters) {
    total: totalNum
    questions: data {
      acRate
      difficulty
      likes
      dislikes
      freqBar
      frontendQuestionId
      isFavor
      paidOnly
      status
      title
      titleSlug
      topicTags { name id slug }
      hasSolution
      hasVideoSolution
    }
  }
}`

const consolePanelConfigQuery = `
query consolePanelConfig($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    exampleTestcaseList
    metaData
    content
    mysqlSchemas
    dataSchemas
    codeSnippets { langSlug code }
    envInfo
    topicTags { slug }
    companyTagStats
    hints
    stats
  }
}`

type graphqlRequest struct {
	Name      string `json:"operationName,omitempty"`
	Query     string `json:"query"`
	Variables any    `json:"variables"`
}

type client struct {
	http *httpclient.Client
}

var referer = http.Header{"Referer": {"https://leetcode.com/problemset/"}}

func (c client) graphql(ctx context.Context, req graphqlRequest) (gjson.Result, error) {
	res, err := c.http.PostJSON(ctx, "/graphql/", req, referer)
	if err != nil {
		return gjson.Result{}, err
	}
	if errs := res.Get("errors"); errs.Exists() && !res.Get("data").Exists() {
		return gjson.Result{}, crawl.Retryable(fmt.Errorf("graphql %s: %s", req.Name, errs.Raw))
	}
	return res.Get("data"), nil
}

// Questions returns the catalog entries after skipping the first skip questions.
func (c client) Questions(ctx context.Context, skip int) (gjson.Result, error) {
	data, err := c.graphql(ctx, graphqlRequest{
		Name:  "problemsetQuestionList",
		Query: questionListQuery,
		Variables: map[string]any{
			"categorySlug": "all-code-essentials",
			"skip":         skip,
			"limit":        PageSize,
			"filters":      map[string]any{},
		},
	})
	if err != nil {
		return gjson.Result{}, err
	}
	questions := data.Get("problemsetQuestionList.questions")
	if !questions.IsArray() {
		return gjson.Result{}, crawl.Retryable(errors.New("question list missing from response"))
	}
	return questions, nil
}

// Question returns the detail of a question as shown in the code console.
func (c client) Question(ctx context.Context, titleSlug string) (gjson.Result, error) {
	data, err := c.graphql(ctx, graphqlRequest{
		Name:      "consolePanelConfig",
		Query:     consolePanelConfigQuery,
		Variables: map[string]any{"titleSlug": titleSlug},
	})
	if err != nil {
		return gjson.Result{}, err
	}
	question := data.Get("question")
	if !question.IsObject() {
		return gjson.Result{}, crawl.Missing("question " + titleSlug)
	}
	return question, nil
}
