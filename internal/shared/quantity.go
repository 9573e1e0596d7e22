package shared

const MaxQuantity = 9999

// Quantity is an item count in (0, MaxQuantity].
type Quantity struct {
	value int
}

func NewQuantity(v int) (Quantity, error) {
	if v <= 0 || v > MaxQuantity {
		return Quantity{}, Validation(CodeInvalidQuantity, "quantity must be between 1 and %d, got %d", MaxQuantity, v)
	}
	return Quantity{value: v}, nil
}

func (q Quantity) Int() int { return q.value }

func (q Quantity) Add(other Quantity) (Quantity, error) {
	return NewQuantity(q.value + other.value)
}

func (q Quantity) Subtract(other Quantity) (Quantity, error) {
	return NewQuantity(q.value - other.value)
}
