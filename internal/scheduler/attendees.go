package scheduler

import (
	"regexp"
	"sort"
	"strings"
)

var validEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether the string looks like a deliverable
// address. Hints that fail this check are dropped, not errors.
func ValidEmail(s string) bool {
	return validEmailPattern.MatchString(s)
}

// ResolveAttendees merges prior participants, the message sender, the
// monitored identity, and extracted attendee hints into one validated
// set. Addresses are lower-cased before dedup and the result is sorted
// so the list is deterministic across reschedules.
func ResolveAttendees(prior []string, sender, identity string, hints []string) []string {
	set := make(map[string]struct{})
	add := func(addr string) {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if ValidEmail(addr) {
			set[addr] = struct{}{}
		}
	}

	for _, p := range prior {
		add(p)
	}
	add(sender)
	add(identity)
	for _, h := range hints {
		add(h)
	}

	out := make([]string, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}
