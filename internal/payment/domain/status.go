package domain

import (
	"strings"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

type StatusValue string

const (
	StatusInitiated  StatusValue = "INITIATED"
	StatusPending    StatusValue = "PENDING"
	StatusSettlement StatusValue = "SETTLEMENT"
	StatusCancel     StatusValue = "CANCEL"
	StatusExpire     StatusValue = "EXPIRE"
	StatusDeny       StatusValue = "DENY"
	StatusRefund     StatusValue = "REFUND"
	StatusFailed     StatusValue = "FAILED"
)

var statusMachine = shared.NewStateMachine(CodeInvalidStatusTransition, false, map[StatusValue][]StatusValue{
	StatusInitiated:  {StatusPending, StatusFailed},
	StatusPending:    {StatusSettlement, StatusCancel, StatusExpire, StatusDeny, StatusFailed},
	StatusSettlement: {StatusRefund},
	StatusCancel:     {},
	StatusExpire:     {},
	StatusDeny:       {},
	StatusRefund:     {},
	StatusFailed:     {},
})

// Status is the payment lifecycle value object.
type Status struct {
	value StatusValue
}

func InitiatedStatus() Status  { return Status{value: StatusInitiated} }
func PendingStatus() Status    { return Status{value: StatusPending} }
func SettlementStatus() Status { return Status{value: StatusSettlement} }
func CancelStatus() Status     { return Status{value: StatusCancel} }
func ExpireStatus() Status     { return Status{value: StatusExpire} }
func DenyStatus() Status       { return Status{value: StatusDeny} }
func RefundStatus() Status     { return Status{value: StatusRefund} }
func FailedStatus() Status     { return Status{value: StatusFailed} }

func ParseStatus(raw string) (Status, error) {
	v := StatusValue(strings.ToUpper(strings.TrimSpace(raw)))
	if !statusMachine.Known(v) {
		return Status{}, shared.Validation(CodeInvalidStatus, "unknown payment status %q", raw)
	}
	return Status{value: v}, nil
}

func AllStatuses() []StatusValue { return statusMachine.Statuses() }

func (s Status) Value() StatusValue { return s.value }
func (s Status) String() string     { return string(s.value) }
func (s Status) IsTerminal() bool   { return statusMachine.IsTerminal(s.value) }
func (s Status) IsPaid() bool       { return s.value == StatusSettlement }

// NextStatuses lists the legal targets from s.
func (s Status) NextStatuses() []StatusValue { return statusMachine.Next(s.value) }

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
