package domain

import (
	"strings"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

type StatusValue string

const (
	StatusActive       StatusValue = "ACTIVE"
	StatusInactive     StatusValue = "INACTIVE"
	StatusOutOfStock   StatusValue = "OUT_OF_STOCK"
	StatusDiscontinued StatusValue = "DISCONTINUED"
)

// ACTIVE may move anywhere; every status may move to itself.
var statusMachine = shared.NewStateMachine(CodeInvalidStatusTransition, true, map[StatusValue][]StatusValue{
	StatusActive:       {StatusInactive, StatusOutOfStock, StatusDiscontinued},
	StatusInactive:     {StatusActive, StatusDiscontinued},
	StatusOutOfStock:   {StatusActive, StatusDiscontinued},
	StatusDiscontinued: {},
})

type Status struct {
	value StatusValue
}

func ActiveStatus() Status       { return Status{value: StatusActive} }
func InactiveStatus() Status     { return Status{value: StatusInactive} }
func OutOfStockStatus() Status   { return Status{value: StatusOutOfStock} }
func DiscontinuedStatus() Status { return Status{value: StatusDiscontinued} }

func ParseStatus(raw string) (Status, error) {
	v := StatusValue(strings.ToUpper(strings.TrimSpace(raw)))
	if !statusMachine.Known(v) {
		return Status{}, shared.Validation(CodeInvalidStatus, "unknown product status %q", raw)
	}
	return Status{value: v}, nil
}

func AllStatuses() []StatusValue { return statusMachine.Statuses() }

func (s Status) Value() StatusValue { return s.value }
func (s Status) String() string     { return string(s.value) }
func (s Status) IsSellable() bool   { return s.value == StatusActive }

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
