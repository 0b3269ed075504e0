package scheduler

import (
	"reflect"
	"testing"
)

func TestResolveAttendees(t *testing.T) {
	tests := []struct {
		name     string
		prior    []string
		sender   string
		identity string
		hints    []string
		want     []string
	}{
		{
			name:     "sender and identity only",
			sender:   "Alice@Example.COM",
			identity: "agent@example.com",
			want:     []string{"agent@example.com", "alice@example.com"},
		},
		{
			name:     "invalid hints dropped silently",
			sender:   "bob@example.com",
			identity: "agent@example.com",
			hints:    []string{"not-an-email", "Carol", "", "dave@@example.com"},
			want:     []string{"agent@example.com", "bob@example.com"},
		},
		{
			name:     "mixed case duplicates collapse",
			prior:    []string{"bob@example.com"},
			sender:   "BOB@example.com",
			identity: "agent@example.com",
			hints:    []string{"Bob@Example.com", "carol@example.com"},
			want:     []string{"agent@example.com", "bob@example.com", "carol@example.com"},
		},
		{
			name:     "output is sorted",
			sender:   "zoe@example.com",
			identity: "agent@example.com",
			hints:    []string{"mia@example.com", "ben@example.com"},
			want:     []string{"agent@example.com", "ben@example.com", "mia@example.com", "zoe@example.com"},
		},
		{
			name:     "prior participants preserved",
			prior:    []string{"old@example.com"},
			sender:   "new@example.com",
			identity: "agent@example.com",
			want:     []string{"agent@example.com", "new@example.com", "old@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAttendees(tt.prior, tt.sender, tt.identity, tt.hints)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveAttendees() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveAttendeesDeterministic(t *testing.T) {
	hints := []string{"b@x.io", "A@x.io", "c@x.io", "a@X.IO"}
	first := ResolveAttendees(nil, "s@x.io", "agent@x.io", hints)
	for i := 0; i < 10; i++ {
		again := ResolveAttendees(nil, "s@x.io", "agent@x.io", hints)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("non-deterministic result: %v vs %v", first, again)
		}
	}
}
