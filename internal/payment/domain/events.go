package domain

const AggregateType = "payment"

const (
	EventPaymentCreated         = "PaymentCreated"
	EventPaymentStatusChanged   = "PaymentStatusChanged"
	EventPaymentSettled         = "PaymentSettled"
	EventPaymentCancelled       = "PaymentCancelled"
	EventPaymentExpired         = "PaymentExpired"
	EventPaymentDenied          = "PaymentDenied"
	EventPaymentRefunded        = "PaymentRefunded"
	EventPaymentFailed          = "PaymentFailed"
	EventPaymentWebhookReceived = "PaymentWebhookReceived"
	EventPaymentDeleted         = "PaymentDeleted"
)

// transitionEvents names the event recorded when a payment enters a status.
// Statuses without an entry record PaymentStatusChanged.
var transitionEvents = map[StatusValue]string{
	StatusSettlement: EventPaymentSettled,
	StatusCancel:     EventPaymentCancelled,
	StatusExpire:     EventPaymentExpired,
	StatusDeny:       EventPaymentDenied,
	StatusRefund:     EventPaymentRefunded,
	StatusFailed:     EventPaymentFailed,
}

const (
	CodeInvalidPayment          = "INVALID_PAYMENT"
	CodeInvalidStatus           = "INVALID_PAYMENT_STATUS"
	CodeInvalidStatusTransition = "INVALID_PAYMENT_STATUS_TRANSITION"
	CodePaymentNotFound         = "PAYMENT_NOT_FOUND"
	CodeDuplicateProviderRef    = "DUPLICATE_PROVIDER_REF"
	CodeAmountMismatch          = "PAYMENT_AMOUNT_MISMATCH"
	CodePaymentInFlight         = "PAYMENT_IN_FLIGHT"
)
