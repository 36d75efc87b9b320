// Package inventory implements stock tracking with time-limited
// reservations. All counters move under one mutex so that
// available + reserved == total holds after every operation.
package inventory

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kafka-ecommerce/shared/pkg/metrics"
	"kafka-ecommerce/shared/pkg/models"
)

var (
	ErrUnknownProduct     = errors.New("unknown product")
	ErrReservationMissing = errors.New("reservation not found")
)

type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Available  int    `json:"available"`
	Reserved   int    `json:"reserved"`
	Total      int    `json:"total"`
	PriceCents int64  `json:"price_cents"`
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationReleased  ReservationStatus = "released"
	ReservationConfirmed ReservationStatus = "confirmed"
)

type Reservation struct {
	ID        string             `json:"id"`
	OrderID   string             `json:"order_id"`
	Items     []models.OrderItem `json:"items"`
	Status    ReservationStatus  `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

type Manager struct {
	mu           sync.Mutex
	products     map[string]*Product
	reservations map[string]*Reservation
	byOrder      map[string]string // order id -> latest reservation id
	ttl          time.Duration
	now          func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		products:     make(map[string]*Product),
		reservations: make(map[string]*Reservation),
		byOrder:      make(map[string]string),
		ttl:          ttl,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// AddProduct registers or restocks a product. A negative available delta is
// clamped at zero.
func (m *Manager) AddProduct(id, name string, quantity int, priceCents int64) Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		p = &Product{ID: id, Name: name}
		m.products[id] = p
	}
	if name != "" {
		p.Name = name
	}
	p.Available += quantity
	p.Total += quantity
	if p.Available < 0 {
		p.Total -= p.Available
		p.Available = 0
	}
	if priceCents > 0 {
		p.PriceCents = priceCents
	}
	return *p
}

// Reserve atomically holds stock for every item or nothing at all. On
// rejection the returned list names each short item with requested vs
// available quantities.
func (m *Manager) Reserve(orderID string, items []models.OrderItem) (*Reservation, []models.InsufficientItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var short []models.InsufficientItem
	for _, it := range items {
		p, ok := m.products[it.ProductID]
		if !ok {
			short = append(short, models.InsufficientItem{
				ProductID: it.ProductID,
				Reason:    "product not found",
				Requested: it.Quantity,
			})
			continue
		}
		if p.Available < it.Quantity {
			short = append(short, models.InsufficientItem{
				ProductID: it.ProductID,
				Reason:    "insufficient quantity",
				Requested: it.Quantity,
				Available: p.Available,
			})
		}
	}
	if len(short) > 0 {
		return nil, short, nil
	}

	now := m.now()
	res := &Reservation{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Items:     append([]models.OrderItem(nil), items...),
		Status:    ReservationActive,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	for _, it := range items {
		p := m.products[it.ProductID]
		p.Available -= it.Quantity
		p.Reserved += it.Quantity
	}
	m.reservations[res.ID] = res
	m.byOrder[orderID] = res.ID
	metrics.ReservationsActive.Inc()
	return cloneReservation(res), nil, nil
}

// Release returns an active reservation's stock to the pool. Releasing a
// non-active reservation is a no-op returning false.
func (m *Manager) Release(reservationID, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.release(reservationID, reason)
}

// ReleaseForOrder releases the order's reservation if one is active. Used
// by compensation handlers, which may fire for orders that never reserved.
func (m *Manager) ReleaseForOrder(orderID, reason string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byOrder[orderID]
	if !ok {
		return "", false
	}
	return id, m.release(id, reason)
}

func (m *Manager) release(reservationID, reason string) bool {
	res, ok := m.reservations[reservationID]
	if !ok || res.Status != ReservationActive {
		return false
	}
	for _, it := range res.Items {
		p := m.products[it.ProductID]
		p.Available += it.Quantity
		p.Reserved -= it.Quantity
	}
	res.Status = ReservationReleased
	res.Reason = reason
	metrics.ReservationsActive.Dec()
	return true
}

// Confirm finalizes an active reservation: the held stock leaves the pool
// for good.
func (m *Manager) Confirm(reservationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirm(reservationID)
}

// ConfirmForOrder confirms the order's reservation if one is active.
func (m *Manager) ConfirmForOrder(orderID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byOrder[orderID]
	if !ok {
		return "", false
	}
	return id, m.confirm(id)
}

func (m *Manager) confirm(reservationID string) bool {
	res, ok := m.reservations[reservationID]
	if !ok || res.Status != ReservationActive {
		return false
	}
	for _, it := range res.Items {
		p := m.products[it.ProductID]
		p.Reserved -= it.Quantity
		p.Total -= it.Quantity
	}
	res.Status = ReservationConfirmed
	metrics.ReservationsActive.Dec()
	return true
}

// SweepExpired releases every active reservation past its deadline and
// returns the released reservations.
func (m *Manager) SweepExpired(now time.Time) []Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []Reservation
	for id, res := range m.reservations {
		if res.Status != ReservationActive || res.ExpiresAt.After(now) {
			continue
		}
		m.release(id, models.ReasonExpired)
		metrics.ReservationsExpired.Inc()
		expired = append(expired, *cloneReservation(res))
	}
	return expired
}

func (m *Manager) Product(id string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrUnknownProduct
	}
	return *p, nil
}

func (m *Manager) Products() []Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) Reservation(id string) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok {
		return Reservation{}, ErrReservationMissing
	}
	return *cloneReservation(res), nil
}

type Stats struct {
	Products           int `json:"products"`
	ActiveReservations int `json:"active_reservations"`
	TotalReservations  int `json:"total_reservations"`
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Stats{Products: len(m.products), TotalReservations: len(m.reservations)}
	for _, res := range m.reservations {
		if res.Status == ReservationActive {
			st.ActiveReservations++
		}
	}
	return st
}

func cloneReservation(res *Reservation) *Reservation {
	cp := *res
	cp.Items = append([]models.OrderItem(nil), res.Items...)
	return &cp
}
