package commands

import (
	"context"
	"cqscraper/internal/components/store"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordNames(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.Nil(t, s.Put(ctx, "CQ-Scrapping/leetcode/", nil))
	require.Nil(t, s.Put(ctx, "CQ-Scrapping/leetcode/2_add-two-numbers.json", []byte("{}")))
	require.Nil(t, s.Put(ctx, "CQ-Scrapping/leetcode/1_two-sum.json", []byte("{}")))
	require.Nil(t, s.Put(ctx, "CQ-Scrapping/codechef/START.json", []byte("{}")))

	names, err := recordNames(ctx, s, "CQ-Scrapping/leetcode")
	require.Nil(t, err)
	require.Equal(t, []string{"1_two-sum", "2_add-two-numbers"}, names)

	names, err = recordNames(ctx, s, "CQ-Scrapping/gfg")
	require.Nil(t, err)
	require.Empty(t, names)
}

func TestReadRecord(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.Nil(t, s.Put(ctx, "CQ-Scrapping/codechef/START.json", []byte(`{"title":"Start","tags":["easy"]}`)))

	doc, err := readRecord(ctx, s, "CQ-Scrapping/codechef", "START")
	require.Nil(t, err)
	require.Equal(t, "{\n    \"tags\": [\n        \"easy\"\n    ],\n    \"title\": \"Start\"\n}", string(doc))

	_, err = readRecord(ctx, s, "CQ-Scrapping/codechef", "MISSING")
	require.ErrorIs(t, err, store.ErrNotFound)
}
