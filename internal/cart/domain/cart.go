package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

type (
	CartID = shared.ID[Cart]
	ItemID = shared.ID[Item]
)

// Item is a cart line. It is only reachable through its Cart.
type Item struct {
	id        ItemID
	productID string
	quantity  shared.Quantity
	createdAt time.Time
	updatedAt time.Time
}

func (i Item) ID() ItemID                { return i.id }
func (i Item) ProductID() string         { return i.productID }
func (i Item) Quantity() shared.Quantity { return i.quantity }
func (i Item) CreatedAt() time.Time      { return i.createdAt }
func (i Item) UpdatedAt() time.Time      { return i.updatedAt }

// ItemSnapshot is the persisted shape of an Item.
type ItemSnapshot struct {
	ID        ItemID
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Cart struct {
	shared.AggregateRoot

	id        CartID
	userID    string
	items     []*Item
	createdAt time.Time
	updatedAt time.Time
}

// New creates an empty cart for userID and records CartCreated.
func New(userID string) (*Cart, error) {
	now := time.Now().UTC()
	c := &Cart{
		id:        shared.NewID[Cart](),
		userID:    strings.TrimSpace(userID),
		createdAt: now,
		updatedAt: now,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.Record(c.event(EventCartCreated, map[string]any{
		"cartId": c.id.String(),
		"userId": c.userID,
	}))
	return c, nil
}

// Reconstruct rehydrates a stored cart without recording events.
func Reconstruct(id CartID, userID string, items []ItemSnapshot, createdAt, updatedAt time.Time) (*Cart, error) {
	c := &Cart{
		id:        id,
		userID:    strings.TrimSpace(userID),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
	for _, s := range items {
		if s.ID.IsZero() {
			return nil, shared.Validation(CodeInvalidCart, "cart item id is required")
		}
		q, err := shared.NewQuantity(s.Quantity)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(s.ProductID) == "" {
			return nil, shared.Validation(CodeInvalidCart, "cart item %s has no product", s.ID)
		}
		c.items = append(c.items, &Item{
			id:        s.ID,
			productID: s.ProductID,
			quantity:  q,
			createdAt: s.CreatedAt,
			updatedAt: s.UpdatedAt,
		})
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cart) validate() error {
	if c.id.IsZero() {
		return shared.Validation(CodeInvalidCart, "cart id is required")
	}
	if c.userID == "" {
		return shared.Validation(CodeInvalidCart, "user id is required")
	}
	if c.createdAt.IsZero() || c.updatedAt.IsZero() {
		return shared.Validation(shared.CodeInvalidTimestamp, "cart timestamps must be set")
	}
	if c.updatedAt.Before(c.createdAt) {
		return shared.Validation(shared.CodeInvalidTimestamp, "cart updated before it was created")
	}
	return nil
}

func (c *Cart) event(name string, payload map[string]any) shared.Event {
	return shared.NewEvent(name, AggregateType, c.id.String(), payload)
}

// AddItem adds a line, or merges into the existing line for the same product.
func (c *Cart) AddItem(productID string, qty shared.Quantity) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return shared.Validation(CodeInvalidCart, "product id is required")
	}
	now := time.Now().UTC()

	if existing := c.findByProduct(productID); existing != nil {
		previous := existing.quantity
		merged, err := previous.Add(qty)
		if err != nil {
			return err
		}
		existing.quantity = merged
		existing.updatedAt = now
		c.updatedAt = now
		c.Record(c.event(EventCartItemQuantityUpdated, map[string]any{
			"cartId":           c.id.String(),
			"userId":           c.userID,
			"itemId":           existing.id.String(),
			"productId":        productID,
			"previousQuantity": previous.Int(),
			"quantity":         merged.Int(),
		}))
		return nil
	}

	item := &Item{
		id:        shared.NewID[Item](),
		productID: productID,
		quantity:  qty,
		createdAt: now,
		updatedAt: now,
	}
	c.items = append(c.items, item)
	c.updatedAt = now
	c.Record(c.event(EventCartItemAdded, map[string]any{
		"cartId":    c.id.String(),
		"userId":    c.userID,
		"itemId":    item.id.String(),
		"productId": productID,
		"quantity":  qty.Int(),
	}))
	return nil
}

// UpdateItemQuantity replaces the quantity of an existing line.
func (c *Cart) UpdateItemQuantity(itemID ItemID, qty shared.Quantity) error {
	item := c.findByID(itemID)
	if item == nil {
		return shared.NotFound(CodeCartItemNotFound, "cart item %s not found", itemID)
	}
	previous := item.quantity
	now := time.Now().UTC()
	item.quantity = qty
	item.updatedAt = now
	c.updatedAt = now
	c.Record(c.event(EventCartItemQuantityUpdated, map[string]any{
		"cartId":           c.id.String(),
		"userId":           c.userID,
		"itemId":           item.id.String(),
		"productId":        item.productID,
		"previousQuantity": previous.Int(),
		"quantity":         qty.Int(),
	}))
	return nil
}

func (c *Cart) RemoveItem(itemID ItemID) error {
	for i, item := range c.items {
		if item.id == itemID {
			c.removeAt(i)
			return nil
		}
	}
	return shared.NotFound(CodeCartItemNotFound, "cart item %s not found", itemID)
}

func (c *Cart) RemoveItemByProduct(productID string) error {
	for i, item := range c.items {
		if item.productID == productID {
			c.removeAt(i)
			return nil
		}
	}
	return shared.NotFound(CodeCartItemNotFound, "no cart item for product %s", productID)
}

func (c *Cart) removeAt(i int) {
	item := c.items[i]
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	c.updatedAt = time.Now().UTC()
	c.Record(c.event(EventCartItemRemoved, map[string]any{
		"cartId":    c.id.String(),
		"userId":    c.userID,
		"itemId":    item.id.String(),
		"productId": item.productID,
		"quantity":  item.quantity.Int(),
	}))
}

// Clear empties the cart. Clearing an empty cart is a no-op.
func (c *Cart) Clear() {
	if len(c.items) == 0 {
		return
	}
	removed := len(c.items)
	c.items = nil
	c.updatedAt = time.Now().UTC()
	c.Record(c.event(EventCartCleared, map[string]any{
		"cartId":       c.id.String(),
		"userId":       c.userID,
		"removedItems": removed,
	}))
}

func (c *Cart) findByProduct(productID string) *Item {
	for _, item := range c.items {
		if item.productID == productID {
			return item
		}
	}
	return nil
}

func (c *Cart) findByID(id ItemID) *Item {
	for _, item := range c.items {
		if item.id == id {
			return item
		}
	}
	return nil
}

func (c *Cart) ID() CartID           { return c.id }
func (c *Cart) UserID() string       { return c.userID }
func (c *Cart) CreatedAt() time.Time { return c.createdAt }
func (c *Cart) UpdatedAt() time.Time { return c.updatedAt }
func (c *Cart) IsEmpty() bool        { return len(c.items) == 0 }
func (c *Cart) ItemCount() int       { return len(c.items) }

// Items returns copies of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	for i, item := range c.items {
		out[i] = *item
	}
	return out
}

func (c *Cart) ItemByProduct(productID string) (Item, bool) {
	if item := c.findByProduct(productID); item != nil {
		return *item, true
	}
	return Item{}, false
}

func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.items {
		total += item.quantity.Int()
	}
	return total
}

// Snapshot returns the persisted shape of the cart lines.
func (c *Cart) Snapshot() []ItemSnapshot {
	out := make([]ItemSnapshot, len(c.items))
	for i, item := range c.items {
		out[i] = ItemSnapshot{
			ID:        item.id,
			ProductID: item.productID,
			Quantity:  item.quantity.Int(),
			CreatedAt: item.createdAt,
			UpdatedAt: item.updatedAt,
		}
	}
	return out
}
