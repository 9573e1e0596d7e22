package shared

import "slices"

// StateMachine is a static adjacency table of legal status moves.
type StateMachine[S ~string] struct {
	code      string
	edges     map[S][]S
	allowSelf bool
}

// NewStateMachine builds a table. code is the error code used for refused
// moves; allowSelf makes s -> s legal for every known status.
func NewStateMachine[S ~string](code string, allowSelf bool, edges map[S][]S) StateMachine[S] {
	return StateMachine[S]{code: code, edges: edges, allowSelf: allowSelf}
}

func (m StateMachine[S]) Known(s S) bool {
	_, ok := m.edges[s]
	return ok
}

func (m StateMachine[S]) CanTransition(from, to S) bool {
	if !m.Known(from) || !m.Known(to) {
		return false
	}
	if from == to && m.allowSelf {
		return true
	}
	return slices.Contains(m.edges[from], to)
}

// Transition returns to when the move is legal, otherwise a *TransitionError.
func (m StateMachine[S]) Transition(from, to S) (S, error) {
	if !m.CanTransition(from, to) {
		return from, &TransitionError{Code: m.code, From: string(from), To: string(to)}
	}
	return to, nil
}

// Next lists the statuses reachable from s, excluding self moves.
func (m StateMachine[S]) Next(s S) []S {
	return slices.Clone(m.edges[s])
}

func (m StateMachine[S]) IsTerminal(s S) bool {
	return m.Known(s) && len(m.edges[s]) == 0
}

// Statuses lists every known status in a stable order.
func (m StateMachine[S]) Statuses() []S {
	out := make([]S, 0, len(m.edges))
	for s := range m.edges {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
