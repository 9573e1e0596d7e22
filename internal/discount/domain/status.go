package domain

import (
	"strings"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

type StatusValue string

const (
	StatusActive   StatusValue = "ACTIVE"
	StatusInactive StatusValue = "INACTIVE"
	StatusExpired  StatusValue = "EXPIRED"
)

var statusMachine = shared.NewStateMachine(CodeInvalidStatusTransition, false, map[StatusValue][]StatusValue{
	StatusActive:   {StatusInactive, StatusExpired},
	StatusInactive: {StatusActive},
	StatusExpired:  {},
})

// Status is the discount lifecycle value object.
type Status struct {
	value StatusValue
}

func ActiveStatus() Status   { return Status{value: StatusActive} }
func InactiveStatus() Status { return Status{value: StatusInactive} }
func ExpiredStatus() Status  { return Status{value: StatusExpired} }

func ParseStatus(raw string) (Status, error) {
	v := StatusValue(strings.ToUpper(strings.TrimSpace(raw)))
	if !statusMachine.Known(v) {
		return Status{}, shared.Validation(CodeInvalidStatus, "unknown discount status %q", raw)
	}
	return Status{value: v}, nil
}

// AllStatuses lists every discount status.
func AllStatuses() []StatusValue { return statusMachine.Statuses() }

func (s Status) Value() StatusValue { return s.value }
func (s Status) String() string     { return string(s.value) }
func (s Status) IsActive() bool     { return s.value == StatusActive }
func (s Status) IsTerminal() bool   { return statusMachine.IsTerminal(s.value) }

func (s Status) CanTransitionTo(next Status) bool {
	return statusMachine.CanTransition(s.value, next.value)
}

func (s Status) TransitionTo(next Status) (Status, error) {
	v, err := statusMachine.Transition(s.value, next.value)
	if err != nil {
		return s, err
	}
	return Status{value: v}, nil
}
