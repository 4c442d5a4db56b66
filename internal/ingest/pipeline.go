package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"cranewatch/internal/models"
)

// Store is the persistence surface the pipeline writes through. A nil
// crane with a nil error from CraneByTopic means no binding exists.
type Store interface {
	CraneByTopic(ctx context.Context, topic string) (*models.Crane, error)
	FieldMappings(ctx context.Context, craneID int64) ([]models.FieldMapping, error)
	// InsertBatch persists every record in the batch, plus the capacity
	// configuration update when set, inside one transaction.
	InsertBatch(ctx context.Context, batch *Batch) error
}

// Notifier publishes fire-and-forget change events after committed
// writes. Implementations must never fail the ingestion path.
type Notifier interface {
	MeasurementStored(ctx context.Context, kind string, craneID int64, summary string)
	AlarmRaised(ctx context.Context, alarm *models.Alarm)
}

// Stats are the pipeline drop counters, kept for schema investigation
// and tests.
type Stats struct {
	DecodeErrors     uint64
	UnresolvedTopics uint64
	ClassifierMisses uint64
	UnknownFields    uint64
}

const (
	persistAttempts = 3
	persistBackoff  = 100 * time.Millisecond

	// routerTTL bounds how long a compiled per-crane router is reused
	// before the mapping overrides are re-read.
	routerTTL = time.Minute
)

type routerEntry struct {
	router    *Router
	fetchedAt time.Time
}

// Pipeline turns one inbound (topic, payload) message into persisted
// measurement rows. Safe for concurrent use; each message is processed
// independently.
type Pipeline struct {
	store    Store
	capacity *CapacityCache
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	routerMu sync.Mutex
	routers  map[int64]routerEntry

	decodeErrors     atomic.Uint64
	unresolvedTopics atomic.Uint64
	classifierMisses atomic.Uint64
	unknownFields    atomic.Uint64
}

// NewPipeline wires the ingestion pipeline.
func NewPipeline(store Store, capacity *CapacityCache, notifier Notifier, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		capacity: capacity,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		routers:  make(map[int64]routerEntry),
	}
}

// Ingest processes one inbound message. Malformed, unresolvable and
// unclassifiable messages are dropped with a log entry and a counter
// bump and return nil; only persistence failures (after bounded
// retries) surface as an error.
func (p *Pipeline) Ingest(ctx context.Context, topic string, payload []byte) error {
	fields, err := DecodeBody(payload)
	if err != nil {
		p.decodeErrors.Add(1)
		p.logger.Warn("dropping undecodable payload", zap.String("topic", topic), zap.Error(err))
		return nil
	}

	crane, err := p.store.CraneByTopic(ctx, topic)
	if err != nil {
		return fmt.Errorf("resolve topic %q: %w", topic, err)
	}
	if crane == nil {
		p.unresolvedTopics.Add(1)
		p.logger.Warn("dropping message for unbound topic", zap.String("topic", topic))
		return nil
	}

	cls := Classify(fields, p.now().UTC())
	if cls.Shape == ShapeUnrecognized {
		p.classifierMisses.Add(1)
		p.logger.Warn("dropping unclassifiable payload",
			zap.String("topic", topic), zap.Int64("crane_id", crane.ID))
		return nil
	}

	router := p.routerFor(ctx, crane.ID)

	batch, unknown := Assemble(crane.ID, cls, router, func() float64 {
		return p.capacity.Resolve(ctx, crane)
	})
	if len(unknown) > 0 {
		p.unknownFields.Add(uint64(len(unknown)))
		p.logger.Debug("ignoring unroutable fields",
			zap.Int64("crane_id", crane.ID), zap.Strings("fields", unknown))
	}
	if batch.Empty() {
		return nil
	}

	if err := p.persist(ctx, crane, &batch); err != nil {
		return fmt.Errorf("persist measurements for crane %d: %w", crane.ID, err)
	}

	p.notify(ctx, &batch)
	return nil
}

// routerFor returns the crane's compiled router, re-reading the mapping
// overrides at most once per TTL rather than once per message. Overrides
// are an optional refinement: a failed lookup falls back to the last
// compiled router, or the generic rules, rather than dropping messages.
func (p *Pipeline) routerFor(ctx context.Context, craneID int64) *Router {
	now := p.now()

	p.routerMu.Lock()
	entry, cached := p.routers[craneID]
	p.routerMu.Unlock()
	if cached && now.Sub(entry.fetchedAt) < routerTTL {
		return entry.router
	}

	mappings, err := p.store.FieldMappings(ctx, craneID)
	if err != nil {
		p.logger.Warn("field mapping lookup failed", zap.Int64("crane_id", craneID), zap.Error(err))
		if cached {
			return entry.router
		}
		return NewRouter(nil)
	}

	router := NewRouter(mappings)
	p.routerMu.Lock()
	p.routers[craneID] = routerEntry{router: router, fetchedAt: now}
	p.routerMu.Unlock()
	return router
}

// persist writes the batch, holding the crane's capacity lock when the
// message updates capacity so concurrent updates cannot interleave.
func (p *Pipeline) persist(ctx context.Context, crane *models.Crane, batch *Batch) error {
	if batch.CapacityUpdate != nil {
		return p.capacity.Update(ctx, crane.ID, *batch.CapacityUpdate, func(ctx context.Context) error {
			return p.insertWithRetry(ctx, batch)
		})
	}
	return p.insertWithRetry(ctx, batch)
}

func (p *Pipeline) insertWithRetry(ctx context.Context, batch *Batch) error {
	var err error
	backoff := persistBackoff
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		if err = p.store.InsertBatch(ctx, batch); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt < persistAttempts {
			p.logger.Warn("measurement write failed, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}
	return err
}

func (p *Pipeline) notify(ctx context.Context, batch *Batch) {
	if p.notifier == nil {
		return
	}
	if n := len(batch.Motors); n > 0 {
		p.notifier.MeasurementStored(ctx, KindMotor.String(), batch.CraneID,
			fmt.Sprintf("%d motor measurement(s), total_power=%.2f", n, batch.Motors[n-1].TotalPower))
	}
	if n := len(batch.IOs); n > 0 {
		p.notifier.MeasurementStored(ctx, KindIO.String(), batch.CraneID,
			fmt.Sprintf("%d io status sample(s)", n))
	}
	if n := len(batch.Loads); n > 0 {
		last := batch.Loads[n-1]
		p.notifier.MeasurementStored(ctx, KindLoad.String(), batch.CraneID,
			fmt.Sprintf("load=%.2fkg (%s)", last.Load, last.Status))
	}
	for i := range batch.Alarms {
		a := &batch.Alarms[i]
		p.notifier.MeasurementStored(ctx, KindAlarm.String(), batch.CraneID, a.Severity)
		if a.Active() {
			p.notifier.AlarmRaised(ctx, a)
		}
	}
}

// Stats returns a snapshot of the drop counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		DecodeErrors:     p.decodeErrors.Load(),
		UnresolvedTopics: p.unresolvedTopics.Load(),
		ClassifierMisses: p.classifierMisses.Load(),
		UnknownFields:    p.unknownFields.Load(),
	}
}
