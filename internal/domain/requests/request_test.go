package requests

import "testing"

func TestTerminal(t *testing.T) {
	cases := map[RequestState]bool{
		StatePending:   false,
		StateAccepted:  false,
		StateRejected:  true,
		StateWithdrawn: true,
	}
	for state, want := range cases {
		if got := state.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, got, want)
		}
	}
}

func TestAllowedTransition(t *testing.T) {
	type tc struct {
		role string
		from RequestState
		to   RequestState
		want bool
	}
	cases := []tc{
		{"student", StatePending, StateWithdrawn, true},
		{"student", StateAccepted, StateWithdrawn, true},
		{"student", StatePending, StateAccepted, false},
		{"student", StateRejected, StateWithdrawn, false},

		{"supervisor", StatePending, StateAccepted, true},
		{"supervisor", StatePending, StateRejected, true},
		{"supervisor", StatePending, StateWithdrawn, true},
		{"supervisor", StateAccepted, StateRejected, false},
		{"supervisor", StateAccepted, StateWithdrawn, false},
		{"supervisor", StateWithdrawn, StateAccepted, false},

		{"admin", StatePending, StateWithdrawn, true},
		{"admin", StateAccepted, StateWithdrawn, true},
		{"admin", StateRejected, StateWithdrawn, false},
		{"admin", StateWithdrawn, StateWithdrawn, false},
		{"admin", StatePending, StateAccepted, false},

		{"nobody", StatePending, StateWithdrawn, false},
	}
	for _, c := range cases {
		if got := AllowedTransition(c.role, c.from, c.to); got != c.want {
			t.Errorf("AllowedTransition(%q, %s, %s) = %v, want %v", c.role, c.from, c.to, got, c.want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, state := range []RequestState{StatePending, StateAccepted, StateRejected, StateWithdrawn} {
		if !state.Valid() {
			t.Errorf("%s should be valid", state)
		}
	}
	if RequestState("EXPIRED").Valid() {
		t.Error("unknown state should not be valid")
	}
}
