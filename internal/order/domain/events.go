package domain

const AggregateType = "order"

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderPaid      = "OrderPaid"
	EventOrderCancelled = "OrderCancelled"
	EventOrderExpired   = "OrderExpired"
	EventOrderRefunded  = "OrderRefunded"
	EventOrderDeleted   = "OrderDeleted"
)

const (
	CodeInvalidOrder            = "INVALID_ORDER"
	CodeInvalidStatus           = "INVALID_ORDER_STATUS"
	CodeInvalidStatusTransition = "INVALID_ORDER_STATUS_TRANSITION"
	CodeOrderNotFound           = "ORDER_NOT_FOUND"
	CodeEmptyOrder              = "EMPTY_ORDER"
	CodeAwaitingPayment         = "ORDER_AWAITING_PAYMENT"
)
