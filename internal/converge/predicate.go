package converge

import (
	"fmt"
	"strings"
)

// Predicate inspects one fetched output. It returns nil when the condition
// holds and an error wrapping ErrUnsatisfied when it does not.
type Predicate func(output string) error

// ContainsAll holds when every marker occurs in the same output. Markers are
// matched as plain substrings; order does not matter. With no markers it
// always holds.
func ContainsAll(markers ...string) Predicate {
	return func(output string) error {
		var missing []string
		for _, m := range markers {
			if !strings.Contains(output, m) {
				missing = append(missing, m)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: missing %q", ErrUnsatisfied, missing)
		}
		return nil
	}
}
