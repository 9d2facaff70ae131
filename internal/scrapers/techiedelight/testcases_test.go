package techiedelight

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCleanTestcases(t *testing.T) {
	dirty := "1,2,3 | 6\n" +
		"\n" +
		"abc | 2 | Y\n" +
		"a,b | N # n # x\n" +
		"-4 |  \n"

	expected := []Testcase{
		{Input: []int{1, 2, 3}, Outputs: 6},
		{Input: []any{"abc", 2}, Outputs: true},
		{Input: []string{"a", "b"}, Outputs: []any{false, false, "x"}},
		{Input: -4, Outputs: ""},
	}
	if diff := cmp.Diff(expected, CleanTestcases(dirty)); diff != "" {
		t.Fatal(diff)
	}
}

func TestCleanValue(t *testing.T) {
	cases := []struct {
		in       string
		expected any
	}{
		{"42", 42},
		{"Y", true},
		{"y", "y"},
		{"n", false},
		{"Yes", "Yes"},
		{"1, 2", []int{1, 2}},
		{"", ""},
	}
	for _, c := range cases {
		if diff := cmp.Diff(c.expected, cleanValue(c.in)); diff != "" {
			t.Errorf("%q: %s", c.in, diff)
		}
	}
}

func TestCleanTestcasesEmpty(t *testing.T) {
	if diff := cmp.Diff([]Testcase{}, CleanTestcases("\n\n")); diff != "" {
		t.Fatal(diff)
	}
}
