package domain

const AggregateType = "cart"

const (
	EventCartCreated             = "CartCreated"
	EventCartItemAdded           = "CartItemAdded"
	EventCartItemQuantityUpdated = "CartItemQuantityUpdated"
	EventCartItemRemoved         = "CartItemRemoved"
	EventCartCleared             = "CartCleared"
)

const (
	CodeInvalidCart       = "INVALID_CART"
	CodeCartNotFound      = "CART_NOT_FOUND"
	CodeCartItemNotFound  = "CART_ITEM_NOT_FOUND"
	CodeCartAlreadyExists = "CART_ALREADY_EXISTS"
)
