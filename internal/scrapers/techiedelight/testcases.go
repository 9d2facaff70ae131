package techiedelight

import (
	"strconv"
	"strings"
)

// Testcase is one line of a testcase template. Input holds one value or a list of values,
// Outputs one accepted output or a list of them.
type Testcase struct {
	Input   any `json:"input"`
	Outputs any `json:"accepted_output(s)"`
}

// CleanTestcases parses a testcase template. Every non-blank line is
// `input | input | ... | output`, an output may list alternatives separated by `#`.
func CleanTestcases(dirty string) []Testcase {
	out := []Testcase{}
	for _, line := range strings.Split(dirty, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "|")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		inputs := make([]any, 0, len(fields)-1)
		for _, field := range fields[:len(fields)-1] {
			inputs = append(inputs, cleanValue(field))
		}

		output := fields[len(fields)-1]
		var outputs any
		if strings.Contains(output, "#") {
			alternatives := []any{}
			for _, alt := range strings.Split(output, "#") {
				alternatives = append(alternatives, cleanValue(strings.TrimSpace(alt)))
			}
			outputs = alternatives
		} else {
			outputs = cleanValue(output)
		}

		out = append(out, Testcase{Input: unwrap(inputs), Outputs: outputs})
	}
	return out
}

func unwrap(values []any) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

// cleanValue types a template value: comma separated values become a list of ints, or of
// strings when one is not an int. Y and N are booleans, integers are ints, anything else
// stays a string.
func cleanValue(s string) any {
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		ints := make([]int, 0, len(parts))
		for _, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return parts
			}
			ints = append(ints, n)
		}
		return ints
	}

	switch s {
	case "Y":
		return true
	case "N", "n":
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return n
}
