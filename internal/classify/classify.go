// Package classify identifies raw extract files by exact column-set
// comparison against the registered input definitions.
package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mhaslett/acgbridge/internal/config"
)

// MatchError reports a failed classification with enough detail to tell the
// user what is wrong with the file: either the ambiguous candidate keys, or
// the nearest candidate with the columns missing from / extra to it.
type MatchError struct {
	Path      string
	Ambiguous []string // non-empty when more than one definition matched
	Duplicate string   // set when another file already supplied the matched type
	Nearest   string   // closest candidate when nothing matched
	Missing   []string // columns the nearest candidate requires but the file lacks
	Extra     []string // columns the file carries but the nearest candidate does not
}

func (e *MatchError) Error() string {
	if e.Duplicate != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Duplicate)
	}
	if len(e.Ambiguous) > 0 {
		return fmt.Sprintf("%s: header matches multiple input types: %s",
			e.Path, strings.Join(e.Ambiguous, ", "))
	}
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("extra %s", strings.Join(e.Extra, ", ")))
	}
	return fmt.Sprintf("%s: header matches no input type; closest is %q (%s)",
		e.Path, e.Nearest, strings.Join(parts, "; "))
}

// Identify returns the key of the unique input definition whose required
// column set equals the file's header set exactly. Matching is case- and
// whitespace-sensitive and rejects subsets and supersets: a file with one
// extra or one missing column never classifies.
func Identify(path string, header []string, reg *config.Registry) (string, *MatchError) {
	have := toSet(header)

	var matches []string
	for _, d := range reg.Inputs {
		if setsEqual(have, toSet(d.Columns)) {
			matches = append(matches, d.Key)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		nearest, missing, extra := nearestCandidate(have, reg)
		return "", &MatchError{Path: path, Nearest: nearest, Missing: missing, Extra: extra}
	default:
		// Unreachable with a validated registry (definitions must have
		// distinct column sets), but fail loudly rather than pick one.
		return "", &MatchError{Path: path, Ambiguous: matches}
	}
}

// nearestCandidate picks the definition with the smallest symmetric
// difference to the file's header set and returns its diff.
func nearestCandidate(have map[string]bool, reg *config.Registry) (key string, missing, extra []string) {
	best := -1
	for _, d := range reg.Inputs {
		want := toSet(d.Columns)
		var m, x []string
		for c := range want {
			if !have[c] {
				m = append(m, c)
			}
		}
		for c := range have {
			if !want[c] {
				x = append(x, c)
			}
		}
		if dist := len(m) + len(x); best == -1 || dist < best {
			best = dist
			key = d.Key
			sort.Strings(m)
			sort.Strings(x)
			missing, extra = m, x
		}
	}
	return key, missing, extra
}

func toSet(cols []string) map[string]bool {
	s := make(map[string]bool, len(cols))
	for _, c := range cols {
		s[c] = true
	}
	return s
}

func setsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for c := range a {
		if !b[c] {
			return false
		}
	}
	return true
}
