package workflow

import (
	"errors"
	"testing"
)

func TestIsValidTransition(t *testing.T) {
	sm := NewStateMachine()

	tests := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{"idle → app_selected", StateIdle, StateAppSelected, true},
		{"app_selected → catalog_loaded", StateAppSelected, StateCatalogLoaded, true},
		{"app_selected → idle", StateAppSelected, StateIdle, true},
		{"catalog_loaded → action_chosen", StateCatalogLoaded, StateActionChosen, true},
		{"action_chosen → type_chosen", StateActionChosen, StateTypeChosen, true},
		{"type_chosen → topics_loading", StateTypeChosen, StateTopicsLoading, true},
		{"topics_loading → topics_ready", StateTopicsLoading, StateTopicsReady, true},
		{"topics_loading → type_chosen", StateTopicsLoading, StateTypeChosen, true},
		{"topics_ready → submitting", StateTopicsReady, StateSubmitting, true},
		{"action_chosen → submitting", StateActionChosen, StateSubmitting, true},
		{"submitting → app_selected", StateSubmitting, StateAppSelected, true},
		{"submitting → action_chosen", StateSubmitting, StateActionChosen, true},
		{"type_chosen → catalog_loaded", StateTypeChosen, StateCatalogLoaded, true},

		// Nothing can be submitted before an action exists
		{"idle → submitting", StateIdle, StateSubmitting, false},
		{"catalog_loaded → submitting", StateCatalogLoaded, StateSubmitting, false},
		{"idle → action_chosen", StateIdle, StateActionChosen, false},
		{"app_selected → action_chosen", StateAppSelected, StateActionChosen, false},
		{"topics_loading → submitting", StateTopicsLoading, StateSubmitting, false},
		{"submitting → idle", StateSubmitting, StateIdle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sm.IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestGetAllowedTransitions(t *testing.T) {
	sm := NewStateMachine()

	allowed := sm.GetAllowedTransitions(StateAppSelected)
	if len(allowed) != 2 {
		t.Fatalf("expected 2 transitions from app_selected, got %d: %v", len(allowed), allowed)
	}
	found := map[State]bool{}
	for _, s := range allowed {
		found[s] = true
	}
	if !found[StateCatalogLoaded] || !found[StateIdle] {
		t.Errorf("expected catalog_loaded and idle, got %v", allowed)
	}

	if got := sm.GetAllowedTransitions(State("bogus")); len(got) != 0 {
		t.Errorf("expected no transitions from unknown state, got %v", got)
	}
}

func TestMoveTo(t *testing.T) {
	sm := NewStateMachine()
	if sm.Current() != StateIdle {
		t.Fatalf("initial state = %s, want idle", sm.Current())
	}

	if err := sm.MoveTo(StateSubmitting); err == nil {
		t.Fatal("expected error for idle → submitting")
	} else {
		var te *TransitionError
		if !errors.As(err, &te) {
			t.Fatalf("expected TransitionError, got %T", err)
		}
		if te.From != StateIdle || te.To != StateSubmitting {
			t.Errorf("unexpected error fields: %+v", te)
		}
	}
	if sm.Current() != StateIdle {
		t.Errorf("state changed after rejected transition: %s", sm.Current())
	}

	for _, to := range []State{StateAppSelected, StateCatalogLoaded, StateActionChosen, StateSubmitting, StateAppSelected} {
		if err := sm.MoveTo(to); err != nil {
			t.Fatalf("MoveTo(%s): %v", to, err)
		}
	}
	if sm.Current() != StateAppSelected {
		t.Errorf("state = %s, want app_selected", sm.Current())
	}
}

func TestAllTransitionsReachEveryState(t *testing.T) {
	targets := map[State]bool{}
	for _, tr := range AllTransitions() {
		targets[tr.To] = true
	}
	for _, s := range []State{StateIdle, StateAppSelected, StateCatalogLoaded, StateActionChosen,
		StateTypeChosen, StateTopicsLoading, StateTopicsReady, StateSubmitting} {
		if !targets[s] {
			t.Errorf("state %s is unreachable", s)
		}
	}
}
