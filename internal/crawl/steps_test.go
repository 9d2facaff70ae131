package crawl

import (
	"cqscraper/internal/components/telemetry"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSteps(t *testing.T) {
	tel := &telemetry.Recorder{}
	steps := NewSteps(tel, "two-sum")

	title := Step(steps, "title", func() (string, error) {
		return "Two Sum", nil
	})
	hints := Field(steps, "hints", func() ([]string, error) {
		return nil, errors.New("hints endpoint returned 500")
	})
	tags := Field(steps, "tags", func() ([]string, error) {
		return []string{"array"}, nil
	})
	var m map[string]string
	Field(steps, "panics", func() (int, error) {
		m["x"] = "y"
		return 1, nil
	})

	require.Equal(t, "Two Sum", title)
	require.Nil(t, hints)
	require.Equal(t, []string{"array"}, tags)
	require.Equal(t, []string{"hints", "panics"}, steps.Failed)
	require.Nil(t, steps.Err())
	require.True(t, tel.Has("warning", report_steps_run))

	ran := false
	steps.Run("config", func() error {
		return Fatal(errors.New("no credentials"))
	})
	steps.Run("after", func() error {
		ran = true
		return nil
	})
	require.False(t, ran)
	require.Equal(t, KindFatal, KindOf(steps.Err()))
}
