// Package workflow implements the action-configuration workflow of the
// application manager console: catalog loading, form building, request
// validation, submission, and the controller that sequences them.
package workflow

// State is a step of the action-configuration workflow
type State string

const (
	StateIdle          State = "idle"
	StateAppSelected   State = "app_selected"
	StateCatalogLoaded State = "catalog_loaded"
	StateActionChosen  State = "action_chosen"
	StateTypeChosen    State = "type_chosen"
	StateTopicsLoading State = "topics_loading"
	StateTopicsReady   State = "topics_ready"
	StateSubmitting    State = "submitting"
)

// Transition defines a valid state change
type Transition struct {
	From State
	To   State
}

// AllTransitions returns every state change the controller may perform
func AllTransitions() []*Transition {
	var all []*Transition
	add := func(to State, from ...State) {
		for _, f := range from {
			all = append(all, &Transition{From: f, To: to})
		}
	}

	// Selecting an application is possible from every settled state;
	// Submitting reaches it only through a successful submission.
	add(StateAppSelected, StateIdle, StateCatalogLoaded, StateActionChosen,
		StateTypeChosen, StateTopicsReady, StateSubmitting)

	add(StateCatalogLoaded, StateAppSelected)
	add(StateIdle, StateAppSelected)

	// Configuration errors deselect the action
	add(StateCatalogLoaded, StateActionChosen, StateTypeChosen, StateTopicsReady)

	add(StateActionChosen, StateCatalogLoaded, StateActionChosen, StateTypeChosen,
		StateTopicsReady, StateSubmitting)

	add(StateTypeChosen, StateActionChosen, StateTypeChosen, StateTopicsReady, StateTopicsLoading)

	add(StateTopicsLoading, StateActionChosen, StateTypeChosen, StateTopicsReady)
	add(StateTopicsReady, StateTopicsLoading)

	add(StateSubmitting, StateActionChosen, StateTypeChosen, StateTopicsReady)

	return all
}

// StateMachine tracks the current workflow state and rejects unknown transitions
type StateMachine struct {
	transitions map[State]map[State]*Transition
	current     State
}

// NewStateMachine creates a machine in StateIdle
func NewStateMachine() *StateMachine {
	sm := &StateMachine{
		transitions: make(map[State]map[State]*Transition),
		current:     StateIdle,
	}
	for _, t := range AllTransitions() {
		sm.addTransition(t)
	}
	return sm
}

func (sm *StateMachine) addTransition(t *Transition) {
	if sm.transitions[t.From] == nil {
		sm.transitions[t.From] = make(map[State]*Transition)
	}
	sm.transitions[t.From][t.To] = t
}

// Current returns the current state
func (sm *StateMachine) Current() State {
	return sm.current
}

// IsValidTransition checks if a transition exists in the state machine
func (sm *StateMachine) IsValidTransition(from, to State) bool {
	if toMap, ok := sm.transitions[from]; ok {
		_, exists := toMap[to]
		return exists
	}
	return false
}

// GetAllowedTransitions returns all valid target states from a given state
func (sm *StateMachine) GetAllowedTransitions(from State) []State {
	var allowed []State
	if toMap, ok := sm.transitions[from]; ok {
		for to := range toMap {
			allowed = append(allowed, to)
		}
	}
	return allowed
}

// MoveTo changes the current state if the transition is registered
func (sm *StateMachine) MoveTo(to State) error {
	if !sm.IsValidTransition(sm.current, to) {
		return &TransitionError{From: sm.current, To: to, Reason: "transition not allowed"}
	}
	sm.current = to
	return nil
}
