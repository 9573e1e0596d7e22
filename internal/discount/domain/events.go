package domain

const AggregateType = "discount"

const (
	EventDiscountCreated     = "DiscountCreated"
	EventDiscountUpdated     = "DiscountUpdated"
	EventDiscountActivated   = "DiscountActivated"
	EventDiscountDeactivated = "DiscountDeactivated"
	EventDiscountExpired     = "DiscountExpired"
	EventDiscountApplied     = "DiscountApplied"
	EventDiscountDeleted     = "DiscountDeleted"
)

const (
	CodeInvalidDiscount          = "INVALID_DISCOUNT"
	CodeInvalidCode              = "INVALID_DISCOUNT_CODE"
	CodeInvalidValue             = "INVALID_DISCOUNT_VALUE"
	CodeInvalidPeriod            = "INVALID_DISCOUNT_PERIOD"
	CodeInvalidStatus            = "INVALID_DISCOUNT_STATUS"
	CodeInvalidStatusTransition  = "INVALID_DISCOUNT_STATUS_TRANSITION"
	CodeDiscountNotFound         = "DISCOUNT_NOT_FOUND"
	CodeDiscountExpired          = "DISCOUNT_EXPIRED"
	CodeDiscountNotStarted       = "DISCOUNT_NOT_STARTED"
	CodeDiscountInactive         = "DISCOUNT_INACTIVE"
	CodeDiscountUsageLimit       = "DISCOUNT_USAGE_LIMIT_REACHED"
	CodeDiscountNotApplicable    = "DISCOUNT_NOT_APPLICABLE"
	CodeDiscountMinPurchaseUnmet = "DISCOUNT_MIN_PURCHASE_NOT_MET"
	CodeDuplicateCode            = "DUPLICATE_DISCOUNT_CODE"
)
