package cart

import (
	"strings"

	"github.com/go-faster/errors"
)

// Policy decides what happens to the optimistic local state when the remote
// call behind a mutation fails.
type Policy int

const (
	// PolicyKeep keeps the optimistic local value; local and remote may
	// diverge until the next successful Initialize or mutation.
	PolicyKeep Policy = iota
	// PolicyRollback undoes the failed mutation on the affected lines only.
	PolicyRollback
	// PolicyResync replaces local state with a fresh remote snapshot.
	PolicyResync
)

func (p Policy) String() string {
	switch p {
	case PolicyKeep:
		return "keep"
	case PolicyRollback:
		return "rollback"
	case PolicyResync:
		return "resync"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name as accepted in configuration. The empty
// string selects PolicyKeep.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return PolicyKeep, nil
	case "rollback":
		return PolicyRollback, nil
	case "resync":
		return PolicyResync, nil
	default:
		return 0, errors.Errorf("unknown cart policy %q", s)
	}
}
