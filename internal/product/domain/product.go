package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

const AggregateType = "product"

const (
	EventProductCreated       = "ProductCreated"
	EventProductUpdated       = "ProductUpdated"
	EventProductPriceChanged  = "ProductPriceChanged"
	EventProductStockAdjusted = "ProductStockAdjusted"
	EventProductStatusChanged = "ProductStatusChanged"
	EventProductDeleted       = "ProductDeleted"
)

const (
	CodeInvalidProduct          = "INVALID_PRODUCT"
	CodeInvalidStatus           = "INVALID_PRODUCT_STATUS"
	CodeInvalidStatusTransition = "INVALID_PRODUCT_STATUS_TRANSITION"
	CodeProductNotFound         = "PRODUCT_NOT_FOUND"
	CodeProductNotAvailable     = "PRODUCT_NOT_AVAILABLE"
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeDuplicateSKU            = "DUPLICATE_PRODUCT_SKU"
)

type ProductID = shared.ID[Product]

type Product struct {
	shared.AggregateRoot

	id          ProductID
	sku         string
	name        string
	description string
	price       shared.Money
	stock       int
	status      Status
	createdAt   time.Time
	updatedAt   time.Time
}

type NewParams struct {
	SKU         string
	Name        string
	Description string
	Price       shared.Money
	Stock       int
}

// New creates a product. It starts ACTIVE, or OUT_OF_STOCK without stock.
func New(p NewParams) (*Product, error) {
	now := time.Now().UTC()
	prod := &Product{
		id:          shared.NewID[Product](),
		sku:         strings.ToUpper(strings.TrimSpace(p.SKU)),
		name:        strings.TrimSpace(p.Name),
		description: strings.TrimSpace(p.Description),
		price:       p.Price,
		stock:       p.Stock,
		status:      ActiveStatus(),
		createdAt:   now,
		updatedAt:   now,
	}
	if prod.stock == 0 {
		prod.status = OutOfStockStatus()
	}
	if err := prod.validate(); err != nil {
		return nil, err
	}
	prod.Record(prod.event(EventProductCreated, map[string]any{
		"productId": prod.id.String(),
		"sku":       prod.sku,
		"price":     prod.price,
		"stock":     prod.stock,
		"status":    prod.status.String(),
	}))
	return prod, nil
}

type ReconstructParams struct {
	ID          ProductID
	SKU         string
	Name        string
	Description string
	Price       shared.Money
	Stock       int
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func Reconstruct(p ReconstructParams) (*Product, error) {
	prod := &Product{
		id:          p.ID,
		sku:         p.SKU,
		name:        p.Name,
		description: p.Description,
		price:       p.Price,
		stock:       p.Stock,
		status:      p.Status,
		createdAt:   p.CreatedAt,
		updatedAt:   p.UpdatedAt,
	}
	if err := prod.validate(); err != nil {
		return nil, err
	}
	return prod, nil
}

func (p *Product) validate() error {
	switch {
	case p.id.IsZero():
		return shared.Validation(CodeInvalidProduct, "product id is required")
	case p.sku == "":
		return shared.Validation(CodeInvalidProduct, "sku is required")
	case p.name == "":
		return shared.Validation(CodeInvalidProduct, "name is required")
	case !p.price.Currency().Valid():
		return shared.Validation(shared.CodeInvalidCurrency, "price is required")
	case p.stock < 0:
		return shared.Validation(CodeInvalidProduct, "stock must not be negative")
	case p.status.Value() == "":
		return shared.Validation(CodeInvalidStatus, "status is required")
	case p.createdAt.IsZero() || p.updatedAt.Before(p.createdAt):
		return shared.Validation(shared.CodeInvalidTimestamp, "product timestamps are inconsistent")
	}
	return nil
}

func (p *Product) event(name string, payload map[string]any) shared.Event {
	return shared.NewEvent(name, AggregateType, p.id.String(), payload)
}

func (p *Product) UpdateDetails(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.Validation(CodeInvalidProduct, "name is required")
	}
	p.name = name
	p.description = strings.TrimSpace(description)
	p.updatedAt = time.Now().UTC()
	p.Record(p.event(EventProductUpdated, map[string]any{
		"productId": p.id.String(),
		"sku":       p.sku,
		"name":      p.name,
	}))
	return nil
}

func (p *Product) ChangePrice(price shared.Money) error {
	same, err := p.price.Equals(price)
	if err != nil {
		return err
	}
	if same {
		return nil
	}
	previous := p.price
	p.price = price
	p.updatedAt = time.Now().UTC()
	p.Record(p.event(EventProductPriceChanged, map[string]any{
		"productId":     p.id.String(),
		"sku":           p.sku,
		"previousPrice": previous,
		"price":         price,
	}))
	return nil
}

// ChangeStatus moves the product through its status machine. Moving to the
// current status is allowed and records nothing.
func (p *Product) ChangeStatus(next Status) error {
	to, err := p.status.TransitionTo(next)
	if err != nil {
		return err
	}
	if to == p.status {
		return nil
	}
	from := p.status
	p.status = to
	p.updatedAt = time.Now().UTC()
	p.Record(p.event(EventProductStatusChanged, map[string]any{
		"productId": p.id.String(),
		"sku":       p.sku,
		"from":      from.String(),
		"to":        to.String(),
	}))
	return nil
}

func (p *Product) Activate() error    { return p.ChangeStatus(ActiveStatus()) }
func (p *Product) Deactivate() error  { return p.ChangeStatus(InactiveStatus()) }
func (p *Product) Discontinue() error { return p.ChangeStatus(DiscontinuedStatus()) }

// AdjustStock applies delta. Running out moves ACTIVE to OUT_OF_STOCK and
// restocking moves OUT_OF_STOCK back to ACTIVE, within the same event.
func (p *Product) AdjustStock(delta int, reason string) error {
	if delta == 0 {
		return nil
	}
	next := p.stock + delta
	if next < 0 {
		return shared.StateConflict(CodeInsufficientStock, "product %s has %d in stock, cannot remove %d", p.sku, p.stock, -delta)
	}
	if p.status.Value() == StatusDiscontinued {
		return shared.StateConflict(CodeProductNotAvailable, "product %s is discontinued", p.sku)
	}

	from := p.status
	to := p.status
	switch {
	case next == 0 && from.Value() == StatusActive:
		to = OutOfStockStatus()
	case next > 0 && from.Value() == StatusOutOfStock:
		to = ActiveStatus()
	}
	if _, err := from.TransitionTo(to); err != nil {
		return err
	}

	previous := p.stock
	p.stock = next
	p.status = to
	p.updatedAt = time.Now().UTC()
	p.Record(p.event(EventProductStockAdjusted, map[string]any{
		"productId":     p.id.String(),
		"sku":           p.sku,
		"previousStock": previous,
		"stock":         next,
		"delta":         delta,
		"reason":        strings.TrimSpace(reason),
		"status":        to.String(),
	}))
	return nil
}

// Reserve takes qty units out of stock for a sale.
func (p *Product) Reserve(qty shared.Quantity) error {
	if !p.status.IsSellable() {
		return shared.StateConflict(CodeProductNotAvailable, "product %s is %s", p.sku, p.status)
	}
	return p.AdjustStock(-qty.Int(), "reserved")
}

// MarkDeleted records the deletion; the repository removes the row.
func (p *Product) MarkDeleted() {
	p.Record(p.event(EventProductDeleted, map[string]any{
		"productId": p.id.String(),
		"sku":       p.sku,
	}))
}

func (p *Product) ID() ProductID        { return p.id }
func (p *Product) SKU() string          { return p.sku }
func (p *Product) Name() string         { return p.name }
func (p *Product) Description() string  { return p.description }
func (p *Product) Price() shared.Money  { return p.price }
func (p *Product) Stock() int           { return p.stock }
func (p *Product) Status() Status       { return p.status }
func (p *Product) CreatedAt() time.Time { return p.createdAt }
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }
