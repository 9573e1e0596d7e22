package shared

import (
	"strings"

	"github.com/google/uuid"
)

// ID is a UUID-backed identity tagged with the entity it identifies, so a
// CartID cannot be passed where a PaymentID is expected.
type ID[T any] struct {
	value uuid.UUID
}

func NewID[T any]() ID[T] {
	return ID[T]{value: uuid.New()}
}

// ParseID validates raw as a UUID. label names the entity in the error message.
func ParseID[T any](label, raw string) (ID[T], error) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || u == uuid.Nil {
		return ID[T]{}, Validation(CodeInvalidID, "invalid %s id %q", label, raw)
	}
	return ID[T]{value: u}, nil
}

func IDFromUUID[T any](u uuid.UUID) ID[T] {
	return ID[T]{value: u}
}

func (id ID[T]) UUID() uuid.UUID { return id.value }
func (id ID[T]) String() string  { return id.value.String() }
func (id ID[T]) IsZero() bool    { return id.value == uuid.Nil }
