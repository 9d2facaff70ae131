package store

import (
	"context"
	"cqscraper/internal/components/telemetry"
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type record struct {
	Title     string            `json:"title"`
	TitleSlug string            `json:"title_slug"`
	Tags      []string          `json:"tags"`
	Snippets  map[string]string `json:"code_snippets"`
	Hints     []string          `json:"hints"`
}

var sample = record{
	Title:     "Two Sum",
	TitleSlug: "two-sum",
	Tags:      []string{"array", "hash-table"},
	Snippets: map[string]string{
		"cpp":    "class Solution {\n};",
		"python": "class Solution:\n    pass",
	},
	Hints: nil,
}

func openSQL(t testing.TB) SQL {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := NewSQL(context.Background(), db, &telemetry.Recorder{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testStore(t *testing.T, s API) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	keys, err := s.List(ctx, "leetcode")
	require.Nil(t, err)
	require.Len(t, keys, 0)

	_, err = s.Get(ctx, "leetcode/1_two-sum.json")
	require.ErrorIs(t, err, ErrNotFound)

	// folder marker, a record of another site and a prefix sharing site
	require.Nil(t, s.Put(ctx, "leetcode/", nil))
	require.Nil(t, s.Put(ctx, "gfg/two-sum.json", []byte("{}")))
	require.Nil(t, s.Put(ctx, "leetcode2/two-sum.json", []byte("{}")))

	key := Key("leetcode", "1_two-sum")
	doc, err := MarshalRecord(sample)
	require.Nil(t, err)
	require.Nil(t, s.Put(ctx, key, doc))

	got, err := GetJSON[record](ctx, s, key)
	require.Nil(t, err)
	if diff := cmp.Diff(sample, got); diff != "" {
		t.Fatal(diff)
	}

	doc, err = s.Get(ctx, key)
	require.Nil(t, err)
	require.Contains(t, string(doc), "\n    \"title\": \"Two Sum\"")

	keys, err = s.List(ctx, "leetcode")
	require.Nil(t, err)
	require.Equal(t, []string{key}, keys)

	// overwrite
	updated := sample
	updated.Title = "Two Sum II"
	doc, err = MarshalRecord(updated)
	require.Nil(t, err)
	require.Nil(t, s.Put(ctx, key, doc))
	got, err = GetJSON[record](ctx, s, key)
	require.Nil(t, err)
	require.Equal(t, "Two Sum II", got.Title)

	keys, err = s.List(ctx, "leetcode/")
	require.Nil(t, err)
	require.Len(t, keys, 1)
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestSQL(t *testing.T) {
	testStore(t, openSQL(t))
}
