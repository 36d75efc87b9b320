package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kafka-ecommerce/shared/pkg/messaging"
	"kafka-ecommerce/shared/pkg/metrics"
	"kafka-ecommerce/shared/pkg/models"
)

// Orchestrator advances order sagas in response to bus events. Handlers are
// serialized by a single mutex in the caller-facing methods, so concurrent
// consumers never interleave transitions for the same store.
type Orchestrator struct {
	store    Store
	producer *messaging.Producer
	log      zerolog.Logger
	timeout  time.Duration
	now      func() time.Time

	mu chan struct{} // semaphore, held across read-modify-write of a saga
}

func NewOrchestrator(store Store, producer *messaging.Producer, log zerolog.Logger, timeout time.Duration) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		producer: producer,
		log:      log,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
		mu:       make(chan struct{}, 1),
	}
	return o
}

func (o *Orchestrator) lock()   { o.mu <- struct{}{} }
func (o *Orchestrator) unlock() { <-o.mu }

// HandleOrderEvent consumes orders.created and orders.validated.
func (o *Orchestrator) HandleOrderEvent(ctx context.Context, evt models.EnvelopeRaw) error {
	o.lock()
	defer o.unlock()

	switch evt.Type {
	case models.TopicOrdersCreated:
		return o.handleOrderCreated(ctx, evt)
	case models.TopicOrdersValidated:
		return o.handleOrderValidated(ctx, evt)
	default:
		o.log.Warn().Str("type", evt.Type).Msg("unexpected order event type")
		return nil
	}
}

// HandleInventoryEvent consumes inventory.reserved and inventory.released.
func (o *Orchestrator) HandleInventoryEvent(ctx context.Context, evt models.EnvelopeRaw) error {
	o.lock()
	defer o.unlock()

	switch evt.Type {
	case models.TopicInventoryReserved:
		return o.handleInventoryReserved(ctx, evt)
	case models.TopicInventoryReleased:
		return o.handleInventoryReleased(ctx, evt)
	default:
		o.log.Warn().Str("type", evt.Type).Msg("unexpected inventory event type")
		return nil
	}
}

// HandlePaymentEvent consumes payments.completed and payments.failed.
func (o *Orchestrator) HandlePaymentEvent(ctx context.Context, evt models.EnvelopeRaw) error {
	o.lock()
	defer o.unlock()

	switch evt.Type {
	case models.TopicPaymentsCompleted:
		return o.handlePaymentCompleted(ctx, evt)
	case models.TopicPaymentsFailed:
		return o.handlePaymentFailed(ctx, evt)
	default:
		o.log.Warn().Str("type", evt.Type).Msg("unexpected payment event type")
		return nil
	}
}

func (o *Orchestrator) handleOrderCreated(ctx context.Context, evt models.EnvelopeRaw) error {
	if _, err := o.store.Get(ctx, evt.OrderID); err == nil {
		o.log.Debug().Str("order_id", evt.OrderID).Msg("saga already exists, skipping create")
		return nil
	} else if err != ErrNotFound {
		return err
	}

	p, err := models.DecodePayload[models.OrderCreatedPayload](evt)
	if err != nil {
		return fmt.Errorf("decode order created: %w", err)
	}

	now := o.now()
	saga := &Saga{
		OrderID:        evt.OrderID,
		CustomerID:     p.CustomerID,
		Items:          p.Items,
		TotalCents:     p.TotalCents,
		State:          StateValidating,
		StepsCompleted: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
		TimeoutAt:      now.Add(o.timeout),
	}
	if err := o.store.Put(ctx, saga); err != nil {
		return err
	}
	metrics.SagaTransitions.WithLabelValues(string(StateValidating)).Inc()
	metrics.SagasActive.Inc()
	o.log.Info().Str("order_id", saga.OrderID).Str("customer_id", saga.CustomerID).
		Int64("total_cents", saga.TotalCents).Msg("saga started")
	return nil
}

func (o *Orchestrator) handleOrderValidated(ctx context.Context, evt models.EnvelopeRaw) error {
	saga, err := o.store.Get(ctx, evt.OrderID)
	if err != nil {
		return err
	}
	if saga.State != StateValidating {
		o.logStale(saga, evt.Type)
		return nil
	}

	saga.markStep(StepValidation)
	o.advance(saga, StateValidated)
	o.advance(saga, StateReservingStock)
	if err := o.store.Put(ctx, saga); err != nil {
		return err
	}
	o.log.Info().Str("order_id", saga.OrderID).Msg("order validated, awaiting reservation")
	return nil
}

func (o *Orchestrator) handleInventoryReserved(ctx context.Context, evt models.EnvelopeRaw) error {
	saga, err := o.store.Get(ctx, evt.OrderID)
	if err != nil {
		return err
	}
	// The reservation may outrun the orchestrator's own orders.validated
	// consumer, so any pre-payment state is acceptable here. A reservation
	// implies validation passed.
	switch saga.State {
	case StateValidating, StateValidated, StateReservingStock:
	default:
		o.logStale(saga, evt.Type)
		return nil
	}

	p, err := models.DecodePayload[models.InventoryReservedPayload](evt)
	if err != nil {
		return fmt.Errorf("decode inventory reserved: %w", err)
	}

	saga.ReservationID = p.ReservationID
	saga.markStep(StepValidation)
	saga.markStep(StepInventoryReserved)
	o.advance(saga, StateStockReserved)
	o.advance(saga, StateProcessingPayment)
	if err := o.store.Put(ctx, saga); err != nil {
		return err
	}

	req := models.NewPaymentRequested(saga.OrderID, saga.CustomerID, saga.TotalCents, models.DefaultPaymentMethod)
	if err := messaging.Send(ctx, o.producer, models.TopicPaymentsRequested, req); err != nil {
		// A saga that cannot request payment must not sit in
		// processing_payment forever; fail it so inventory compensates.
		return o.fail(ctx, saga, "payment request could not be published")
	}
	o.log.Info().Str("order_id", saga.OrderID).Str("reservation_id", p.ReservationID).
		Msg("inventory reserved, payment requested")
	return nil
}

func (o *Orchestrator) handleInventoryReleased(ctx context.Context, evt models.EnvelopeRaw) error {
	p, err := models.DecodePayload[models.InventoryReleasedPayload](evt)
	if err != nil {
		return fmt.Errorf("decode inventory released: %w", err)
	}

	// Compensation acks (payment_failed, order_failed, expired) need no saga
	// transition: the saga already failed or will fail on its own path.
	if p.Reason != models.ReasonInsufficientInventory {
		o.log.Debug().Str("order_id", evt.OrderID).Str("reason", p.Reason).Msg("reservation released")
		return nil
	}

	saga, err := o.store.Get(ctx, evt.OrderID)
	if err != nil {
		return err
	}
	if saga.State.Terminal() {
		o.logStale(saga, evt.Type)
		return nil
	}
	return o.fail(ctx, saga, models.ReasonInsufficientInventory)
}

func (o *Orchestrator) handlePaymentCompleted(ctx context.Context, evt models.EnvelopeRaw) error {
	saga, err := o.store.Get(ctx, evt.OrderID)
	if err != nil {
		return err
	}
	if saga.State != StateProcessingPayment {
		o.logStale(saga, evt.Type)
		return nil
	}

	p, err := models.DecodePayload[models.PaymentCompletedPayload](evt)
	if err != nil {
		return fmt.Errorf("decode payment completed: %w", err)
	}

	saga.PaymentID = p.PaymentID
	saga.markStep(StepPaymentCompleted)
	o.advance(saga, StatePaymentCompleted)
	o.advance(saga, StateCompletingOrder)

	completed := models.NewOrderCompleted(saga.OrderID, saga.PaymentID, saga.ReservationID)
	if err := messaging.Send(ctx, o.producer, models.TopicOrdersCompleted, completed); err != nil {
		return o.fail(ctx, saga, "order completion could not be published")
	}

	saga.markStep(StepCompletion)
	o.advance(saga, StateCompleted)
	metrics.SagasActive.Dec()
	if err := o.store.Put(ctx, saga); err != nil {
		return err
	}
	o.log.Info().Str("order_id", saga.OrderID).Str("payment_id", saga.PaymentID).Msg("saga completed")
	return nil
}

func (o *Orchestrator) handlePaymentFailed(ctx context.Context, evt models.EnvelopeRaw) error {
	saga, err := o.store.Get(ctx, evt.OrderID)
	if err != nil {
		return err
	}
	if saga.State.Terminal() {
		o.logStale(saga, evt.Type)
		return nil
	}

	p, err := models.DecodePayload[models.PaymentFailedPayload](evt)
	if err != nil {
		return fmt.Errorf("decode payment failed: %w", err)
	}
	return o.fail(ctx, saga, "payment_failed: "+p.Reason)
}

// Cancel moves a non-terminal saga to cancelled and emits orders.failed so
// participants compensate. Terminal sagas are left untouched.
func (o *Orchestrator) Cancel(ctx context.Context, orderID string) (*Saga, error) {
	o.lock()
	defer o.unlock()

	saga, err := o.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if saga.State.Terminal() {
		return saga, fmt.Errorf("saga %s already %s", orderID, saga.State)
	}

	saga.FailureReason = "cancelled"
	o.advance(saga, StateCancelled)
	metrics.SagasActive.Dec()
	if err := o.store.Put(ctx, saga); err != nil {
		return nil, err
	}

	failed := models.NewOrderFailed(saga.OrderID, "cancelled", saga.StepsCompleted)
	if err := messaging.Send(ctx, o.producer, models.TopicOrdersFailed, failed); err != nil {
		return nil, err
	}
	o.log.Info().Str("order_id", orderID).Msg("saga cancelled")
	return saga, nil
}

func (o *Orchestrator) fail(ctx context.Context, saga *Saga, reason string) error {
	saga.FailureReason = reason
	o.advance(saga, StateFailed)
	metrics.SagasActive.Dec()
	if err := o.store.Put(ctx, saga); err != nil {
		return err
	}

	failed := models.NewOrderFailed(saga.OrderID, reason, saga.StepsCompleted)
	if err := messaging.Send(ctx, o.producer, models.TopicOrdersFailed, failed); err != nil {
		return err
	}
	o.log.Warn().Str("order_id", saga.OrderID).Str("reason", reason).
		Strs("steps_completed", saga.StepsCompleted).Msg("saga failed")
	return nil
}

func (o *Orchestrator) advance(saga *Saga, to State) {
	saga.transition(to, o.now())
	metrics.SagaTransitions.WithLabelValues(string(to)).Inc()
}

func (o *Orchestrator) logStale(saga *Saga, eventType string) {
	o.log.Debug().Str("order_id", saga.OrderID).Str("state", string(saga.State)).
		Str("event_type", eventType).Msg("event ignored in current state")
}

// Stats summarises sagas by state along with completion quality numbers.
type Stats struct {
	Total                int           `json:"total"`
	ByState              map[State]int `json:"by_state"`
	Active               int           `json:"active"`
	SuccessRate          float64       `json:"success_rate"`
	AvgCompletionSeconds float64       `json:"avg_completion_seconds"`
}

func (o *Orchestrator) Stats(ctx context.Context) (Stats, error) {
	all, err := o.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(all), ByState: make(map[State]int)}
	var (
		terminal      int
		completionSum float64
	)
	for _, s := range all {
		st.ByState[s.State]++
		if !s.State.Terminal() {
			st.Active++
			continue
		}
		terminal++
		if s.State == StateCompleted && s.CompletedAt != nil {
			completionSum += s.CompletedAt.Sub(s.CreatedAt).Seconds()
		}
	}
	if terminal > 0 {
		st.SuccessRate = float64(st.ByState[StateCompleted]) / float64(terminal)
	}
	if done := st.ByState[StateCompleted]; done > 0 {
		st.AvgCompletionSeconds = completionSum / float64(done)
	}
	return st, nil
}

func (o *Orchestrator) Get(ctx context.Context, orderID string) (*Saga, error) {
	return o.store.Get(ctx, orderID)
}

func (o *Orchestrator) ListByState(ctx context.Context, state State) ([]*Saga, error) {
	return o.store.ByState(ctx, state)
}

func (o *Orchestrator) List(ctx context.Context) ([]*Saga, error) {
	return o.store.List(ctx)
}
