// Package report summarises the outcome of a bulk operation.
package report

import (
	"fmt"
	"sort"
	"strings"
)

// Result is the outcome for one record.
type Result struct {
	Key string
	Err error
}

// Counts returns how many results succeeded and failed.
func Counts(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}

// Generate renders the results grouped under a heading for the verb
// ("deleted") and one for failures, each sorted by key.
func Generate(verb string, results []Result) string {
	var done, failed []string

	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, fmt.Sprintf("%s (%v)", r.Key, r.Err))
			continue
		}
		done = append(done, r.Key)
	}

	sort.Strings(done)
	sort.Strings(failed)

	var sb strings.Builder

	if len(done) > 0 {
		sb.WriteString(verb + ":\n")
		for _, k := range done {
			fmt.Fprintf(&sb, "- %s\n", k)
		}
	}

	if len(failed) > 0 {
		sb.WriteString("failed:\n")
		for _, k := range failed {
			fmt.Fprintf(&sb, "- %s\n", k)
		}
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
