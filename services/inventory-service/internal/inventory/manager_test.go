package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafka-ecommerce/shared/pkg/models"
)

func newTestManager() *Manager {
	m := NewManager(30 * time.Minute)
	m.AddProduct("LAPTOP001", "Gaming Laptop", 5, 129999)
	m.AddProduct("MOUSE001", "Gaming Mouse", 10, 7999)
	return m
}

func checkInvariant(t *testing.T, m *Manager) {
	t.Helper()
	for _, p := range m.Products() {
		assert.Equalf(t, p.Total, p.Available+p.Reserved,
			"product %s: available %d + reserved %d != total %d", p.ID, p.Available, p.Reserved, p.Total)
		assert.GreaterOrEqual(t, p.Available, 0)
		assert.GreaterOrEqual(t, p.Reserved, 0)
	}
}

func TestReserveHoldsStock(t *testing.T) {
	m := newTestManager()

	res, short, err := m.Reserve("order-1", []models.OrderItem{{ProductID: "LAPTOP001", Quantity: 2}})
	require.NoError(t, err)
	require.Empty(t, short)
	require.NotNil(t, res)
	assert.Equal(t, ReservationActive, res.Status)

	p, err := m.Product("LAPTOP001")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Available)
	assert.Equal(t, 2, p.Reserved)
	checkInvariant(t, m)
}

func TestReserveAllOrNothing(t *testing.T) {
	m := newTestManager()

	res, short, err := m.Reserve("order-1", []models.OrderItem{
		{ProductID: "LAPTOP001", Quantity: 2},
		{ProductID: "MOUSE001", Quantity: 50},
	})
	require.NoError(t, err)
	assert.Nil(t, res)
	require.Len(t, short, 1)
	assert.Equal(t, "MOUSE001", short[0].ProductID)
	assert.Equal(t, 50, short[0].Requested)
	assert.Equal(t, 10, short[0].Available)

	// Nothing held for the item that could have been satisfied.
	p, err := m.Product("LAPTOP001")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Available)
	assert.Equal(t, 0, p.Reserved)
	checkInvariant(t, m)
}

func TestReserveUnknownProduct(t *testing.T) {
	m := newTestManager()

	res, short, err := m.Reserve("order-1", []models.OrderItem{{ProductID: "NOPE", Quantity: 1}})
	require.NoError(t, err)
	assert.Nil(t, res)
	require.Len(t, short, 1)
	assert.Equal(t, "product not found", short[0].Reason)
}

func TestReserveThenReleaseRestoresPool(t *testing.T) {
	m := newTestManager()

	// Two already reserved, then reserve two of the remaining three.
	_, short, err := m.Reserve("order-0", []models.OrderItem{{ProductID: "LAPTOP001", Quantity: 2}})
	require.NoError(t, err)
	require.Empty(t, short)

	res, short, err := m.Reserve("order-1", []models.OrderItem{{ProductID: "LAPTOP001", Quantity: 2}})
	require.NoError(t, err)
	require.Empty(t, short)

	p, _ := m.Product("LAPTOP001")
	assert.Equal(t, 1, p.Available)
	assert.Equal(t, 4, p.Reserved)

	require.True(t, m.Release(res.ID, models.ReasonPaymentFailed))
	p, _ = m.Product("LAPTOP001")
	assert.Equal(t, 3, p.Available)
	assert.Equal(t, 2, p.Reserved)
	checkInvariant(t, m)

	got, err := m.Reservation(res.ID)
	require.NoError(t, err)
	assert.Equal(t, ReservationReleased, got.Status)
	assert.Equal(t, models.ReasonPaymentFailed, got.Reason)
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := newTestManager()
	res, _, err := m.Reserve("order-1", []models.OrderItem{{ProductID: "MOUSE001", Quantity: 3}})
	require.NoError(t, err)

	assert.True(t, m.Release(res.ID, models.ReasonOrderFailed))
	assert.False(t, m.Release(res.ID, models.ReasonOrderFailed), "second release is a no-op")
	assert.False(t, m.Release("missing", "whatever"))

	p, _ := m.Product("MOUSE001")
	assert.Equal(t, 10, p.Available)
	checkInvariant(t, m)
}

func TestConfirmRemovesStockPermanently(t *testing.T) {
	m := newTestManager()
	res, _, err := m.Reserve("order-1", []models.OrderItem{{ProductID: "LAPTOP001", Quantity: 2}})
	require.NoError(t, err)

	require.True(t, m.Confirm(res.ID))
	p, _ := m.Product("LAPTOP001")
	assert.Equal(t, 3, p.Available)
	assert.Equal(t, 0, p.Reserved)
	assert.Equal(t, 3, p.Total)
	checkInvariant(t, m)

	assert.False(t, m.Confirm(res.ID), "confirm after confirm is a no-op")
	assert.False(t, m.Release(res.ID, "late"), "release after confirm is a no-op")
}

func TestReleaseForOrder(t *testing.T) {
	m := newTestManager()
	res, _, err := m.Reserve("order-1", []models.OrderItem{{ProductID: "MOUSE001", Quantity: 4}})
	require.NoError(t, err)

	id, ok := m.ReleaseForOrder("order-1", models.ReasonPaymentFailed)
	assert.True(t, ok)
	assert.Equal(t, res.ID, id)

	_, ok = m.ReleaseForOrder("order-1", models.ReasonPaymentFailed)
	assert.False(t, ok, "already released")
	_, ok = m.ReleaseForOrder("order-unknown", models.ReasonPaymentFailed)
	assert.False(t, ok)
}

func TestSweepExpired(t *testing.T) {
	m := NewManager(time.Minute)
	m.AddProduct("LAPTOP001", "Gaming Laptop", 5, 129999)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	res, _, err := m.Reserve("order-1", []models.OrderItem{{ProductID: "LAPTOP001", Quantity: 2}})
	require.NoError(t, err)

	assert.Empty(t, m.SweepExpired(base.Add(30*time.Second)), "not yet expired")

	expired := m.SweepExpired(base.Add(2 * time.Minute))
	require.Len(t, expired, 1)
	assert.Equal(t, res.ID, expired[0].ID)
	assert.Equal(t, models.ReasonExpired, expired[0].Reason)

	p, _ := m.Product("LAPTOP001")
	assert.Equal(t, 5, p.Available)
	checkInvariant(t, m)

	assert.Empty(t, m.SweepExpired(base.Add(3*time.Minute)), "sweep is idempotent")
}

func TestAddProductRestocks(t *testing.T) {
	m := newTestManager()
	p := m.AddProduct("LAPTOP001", "", 10, 0)
	assert.Equal(t, 15, p.Available)
	assert.Equal(t, 15, p.Total)
	assert.Equal(t, "Gaming Laptop", p.Name)
	assert.Equal(t, int64(129999), p.PriceCents)
	checkInvariant(t, m)
}

func TestSeedCatalog(t *testing.T) {
	m := NewManager(time.Minute)
	SeedCatalog(m)
	assert.Len(t, m.Products(), 10)
	p, err := m.Product("LAPTOP001")
	require.NoError(t, err)
	assert.Equal(t, 50, p.Available)
	assert.Equal(t, int64(129999), p.PriceCents)
}
