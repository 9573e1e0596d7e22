package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

func qty(t *testing.T, n int) shared.Quantity {
	t.Helper()
	q, err := shared.NewQuantity(n)
	require.NoError(t, err)
	return q
}

func TestNewCartRecordsCreated(t *testing.T) {
	c, err := New("u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID())
	assert.True(t, c.IsEmpty())
	assert.Equal(t, []string{EventCartCreated}, shared.EventNames(c.PendingEvents()))

	_, err = New("  ")
	assert.True(t, shared.IsCode(err, CodeInvalidCart))
}

func TestAddSameProductMergesQuantity(t *testing.T) {
	c, err := New("u1")
	require.NoError(t, err)

	require.NoError(t, c.AddItem("p1", qty(t, 2)))
	require.NoError(t, c.AddItem("p1", qty(t, 3)))

	require.Equal(t, 1, c.ItemCount())
	item, ok := c.ItemByProduct("p1")
	require.True(t, ok)
	assert.Equal(t, 5, item.Quantity().Int())

	events := c.PullDomainEvents()
	assert.Equal(t, []string{EventCartCreated, EventCartItemAdded, EventCartItemQuantityUpdated}, shared.EventNames(events))
	assert.Equal(t, 2, events[2].Payload()["previousQuantity"])
	assert.Equal(t, 5, events[2].Payload()["quantity"])
	assert.Empty(t, c.PendingEvents())
}

func TestAddItemRejectsOverflowWithoutMutation(t *testing.T) {
	c, _ := New("u1")
	require.NoError(t, c.AddItem("p1", qty(t, shared.MaxQuantity)))
	before := len(c.PendingEvents())

	err := c.AddItem("p1", qty(t, 1))
	assert.True(t, shared.IsCode(err, shared.CodeInvalidQuantity))
	item, _ := c.ItemByProduct("p1")
	assert.Equal(t, shared.MaxQuantity, item.Quantity().Int())
	assert.Len(t, c.PendingEvents(), before)
}

func TestRemoveMissingItemLeavesCartUnchanged(t *testing.T) {
	c, _ := New("u1")
	require.NoError(t, c.AddItem("p1", qty(t, 1)))
	before := c.Items()
	_ = c.PullDomainEvents()

	err := c.RemoveItem(shared.NewID[Item]())
	assert.True(t, shared.IsCode(err, CodeCartItemNotFound))
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
	assert.Equal(t, before, c.Items())
	assert.Empty(t, c.PendingEvents())

	err = c.RemoveItemByProduct("nope")
	assert.True(t, shared.IsCode(err, CodeCartItemNotFound))
}

func TestRemoveItem(t *testing.T) {
	c, _ := New("u1")
	require.NoError(t, c.AddItem("p1", qty(t, 1)))
	require.NoError(t, c.AddItem("p2", qty(t, 4)))
	p1, _ := c.ItemByProduct("p1")
	_ = c.PullDomainEvents()

	require.NoError(t, c.RemoveItem(p1.ID()))
	assert.Equal(t, 1, c.ItemCount())
	require.NoError(t, c.RemoveItemByProduct("p2"))
	assert.True(t, c.IsEmpty())
	assert.Equal(t, []string{EventCartItemRemoved, EventCartItemRemoved}, shared.EventNames(c.PullDomainEvents()))
}

func TestUpdateItemQuantity(t *testing.T) {
	c, _ := New("u1")
	require.NoError(t, c.AddItem("p1", qty(t, 1)))
	item, _ := c.ItemByProduct("p1")

	require.NoError(t, c.UpdateItemQuantity(item.ID(), qty(t, 7)))
	assert.Equal(t, 7, c.TotalQuantity())

	err := c.UpdateItemQuantity(shared.NewID[Item](), qty(t, 1))
	assert.True(t, shared.IsCode(err, CodeCartItemNotFound))
}

func TestClear(t *testing.T) {
	c, _ := New("u1")
	_ = c.PullDomainEvents()

	c.Clear()
	assert.Empty(t, c.PendingEvents(), "clearing an empty cart records nothing")

	require.NoError(t, c.AddItem("p1", qty(t, 1)))
	require.NoError(t, c.AddItem("p2", qty(t, 1)))
	_ = c.PullDomainEvents()
	c.Clear()
	assert.True(t, c.IsEmpty())
	events := c.PullDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventCartCleared, events[0].Name())
	assert.Equal(t, 2, events[0].Payload()["removedItems"])
}

func TestReconstructDoesNotRecordEvents(t *testing.T) {
	created := time.Now().UTC().Add(-time.Hour)
	c, err := Reconstruct(shared.NewID[Cart](), "u1", []ItemSnapshot{
		{ID: shared.NewID[Item](), ProductID: "p1", Quantity: 3, CreatedAt: created, UpdatedAt: created},
	}, created, created)
	require.NoError(t, err)
	assert.Empty(t, c.PendingEvents())
	assert.Equal(t, 3, c.TotalQuantity())
	assert.Len(t, c.Snapshot(), 1)

	_, err = Reconstruct(shared.NewID[Cart](), "u1", nil, created, created.Add(-time.Minute))
	assert.True(t, shared.IsCode(err, shared.CodeInvalidTimestamp))

	_, err = Reconstruct(shared.NewID[Cart](), "u1", []ItemSnapshot{{ID: shared.NewID[Item](), ProductID: "p1", Quantity: 0}}, created, created)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidQuantity))

	_, err = Reconstruct(shared.NewID[Cart](), "u1", []ItemSnapshot{{ProductID: "p1", Quantity: 1}}, created, created)
	assert.True(t, shared.IsCode(err, CodeInvalidCart))
}
