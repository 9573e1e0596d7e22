package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityRange(t *testing.T) {
	for _, v := range []int{0, -1, MaxQuantity + 1} {
		_, err := NewQuantity(v)
		assert.True(t, IsCode(err, CodeInvalidQuantity), "value %d", v)
	}

	q, err := NewQuantity(MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, q.Int())

	two, _ := NewQuantity(2)
	three, _ := NewQuantity(3)
	five, err := two.Add(three)
	require.NoError(t, err)
	assert.Equal(t, 5, five.Int())
	assert.Equal(t, 2, two.Int())

	_, err = two.Subtract(three)
	assert.True(t, IsCode(err, CodeInvalidQuantity))
	_, err = q.Add(two)
	assert.True(t, IsCode(err, CodeInvalidQuantity))
}

type widget struct{}

func TestParseID(t *testing.T) {
	id := NewID[widget]()
	parsed, err := ParseID[widget]("widget", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, raw := range []string{"", "not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
		_, err := ParseID[widget]("widget", raw)
		assert.True(t, IsCode(err, CodeInvalidID), "raw %q", raw)
	}
}

func TestAggregateRootPullDrainsInOrder(t *testing.T) {
	var root AggregateRoot
	root.Record(NewEvent("A", "test", "1", nil))
	root.Record(NewEvent("B", "test", "1", map[string]any{"k": "v"}))

	assert.Equal(t, []string{"A", "B"}, EventNames(root.PendingEvents()))

	pulled := root.PullDomainEvents()
	assert.Equal(t, []string{"A", "B"}, EventNames(pulled))
	assert.Equal(t, "v", pulled[1].String("k"))
	assert.Empty(t, root.PullDomainEvents())
}

func TestEventPayloadIsCopied(t *testing.T) {
	payload := map[string]any{"email": "a@example.com"}
	e := NewEvent("UserRegistered", "user", "1", payload)
	payload["email"] = "changed"

	got := e.Payload()
	got["email"] = "mutated"
	assert.Equal(t, "a@example.com", e.String("email"))
}

type light string

func TestStateMachine(t *testing.T) {
	sm := NewStateMachine("INVALID_LIGHT_TRANSITION", false, map[light][]light{
		"red":    {"green"},
		"green":  {"yellow"},
		"yellow": {"red"},
		"off":    {},
	})

	assert.True(t, sm.CanTransition("red", "green"))
	assert.False(t, sm.CanTransition("red", "red"))
	assert.False(t, sm.CanTransition("red", "blue"))
	assert.True(t, sm.IsTerminal("off"))

	_, err := sm.Transition("green", "red")
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "green", te.From)
	assert.Equal(t, "red", te.To)
	assert.Equal(t, "INVALID_LIGHT_TRANSITION", CodeOf(err))
	assert.Equal(t, KindStateConflict, KindOf(err))

	selfish := NewStateMachine("X", true, map[light][]light{"on": {}})
	assert.True(t, selfish.CanTransition("on", "on"))
}

func TestEnumMapValidatesAtConstruction(t *testing.T) {
	_, err := NewEnumMap("light", []light{"red", "green"}, map[light]string{"red": "r"})
	assert.Error(t, err)

	_, err = NewEnumMap("light", []light{"red", "green"}, map[light]string{"red": "x", "green": "x"})
	assert.Error(t, err)

	assert.Panics(t, func() {
		MustEnumMap("light", []light{"red"}, map[light]string{})
	})

	m := MustEnumMap("light", []light{"red", "green"}, map[light]string{"red": "r", "green": "g"})
	p, err := m.ToStore("green")
	require.NoError(t, err)
	assert.Equal(t, "g", p)
	d, err := m.ToDomain("r")
	require.NoError(t, err)
	assert.Equal(t, light("red"), d)
	_, err = m.ToDomain("z")
	assert.Error(t, err)
}

func TestErrorCodesSurviveWrapping(t *testing.T) {
	base := NotFound("CART_ITEM_NOT_FOUND", "item %s not in cart", "x")
	wrapped := fmt.Errorf("remove item: %w", base)
	assert.Equal(t, "CART_ITEM_NOT_FOUND", CodeOf(wrapped))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "", CodeOf(errors.New("plain")))

	infra := Infrastructure("cache.del", errors.New("dial tcp: refused"))
	assert.True(t, IsKind(infra, KindInfrastructure))
	assert.Nil(t, Infrastructure("noop", nil))
}
