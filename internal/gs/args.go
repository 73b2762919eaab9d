package gs

import "strings"

// Args is an ordered, append-only list of command-line flags. Duplicates are
// kept and later entries never overwrite earlier ones; conflicting flags are
// left for Ghostscript's own precedence rules to resolve.
type Args struct {
	list []string
}

// Append adds flags to the end of the list in the order given.
func (a *Args) Append(flags ...string) {
	a.list = append(a.list, flags...)
}

// Contains reports whether the exact flag string was previously appended.
// Matching is whole-entry equality including any =value part, not key or
// prefix matching.
func (a *Args) Contains(flag string) bool {
	for _, f := range a.list {
		if f == flag {
			return true
		}
	}
	return false
}

// Len returns the number of appended flags.
func (a *Args) Len() int { return len(a.list) }

// List returns a copy of the flags in append order.
func (a *Args) List() []string {
	return append([]string(nil), a.list...)
}

// String renders the flags as a single space-joined command fragment.
func (a *Args) String() string { return strings.Join(a.list, " ") }
