package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/shopkeepers/internal/platform/otel"
	"github.com/louisbranch/shopkeepers/internal/platform/timeouts"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopkeeper"
)

// DefaultSaveDelay is the delay SaveDelayed waits before flushing.
const DefaultSaveDelay = 30 * time.Second

// DefaultQueueSize bounds the number of batches in flight.
const DefaultQueueSize = 4

// CoordinatorConfig wires a Coordinator.
type CoordinatorConfig struct {
	Store     Store
	SaveDelay time.Duration
	QueueSize int
	Now       func() time.Time
	Logf      func(format string, args ...any)
}

type batch struct {
	seq     uint64
	records []Record
	deleted []int
}

type result struct {
	seq uint64
	err error
}

type inflight struct {
	saved   []*shopkeeper.Shopkeeper
	deleted []int
}

// Coordinator collects dirty and deleted shopkeepers and hands them to a
// writer goroutine in batches.
//
// Everything except Run is confined to the tick goroutine. Records are
// encoded to JSON before they cross to the writer, so the writer never
// touches shopkeeper state.
type Coordinator struct {
	store     Store
	saveDelay time.Duration
	queueSize int
	now       func() time.Time
	logf      func(string, ...any)
	tracer    trace.Tracer

	dirty      map[int]*shopkeeper.Shopkeeper
	deleted    map[int]struct{}
	tombstones map[int]struct{}
	delayedDue time.Time

	seq      uint64
	inflight map[uint64]inflight
	batches  chan batch
	results  chan result

	closed bool
}

// NewCoordinator builds a coordinator. Run must be started for batches to
// be written.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	saveDelay := cfg.SaveDelay
	if saveDelay < 0 {
		saveDelay = 0
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Coordinator{
		store:      cfg.Store,
		saveDelay:  saveDelay,
		queueSize:  queueSize,
		now:        now,
		logf:       logf,
		tracer:     otel.Tracer("storage"),
		dirty:      make(map[int]*shopkeeper.Shopkeeper),
		deleted:    make(map[int]struct{}),
		tombstones: make(map[int]struct{}),
		inflight:   make(map[uint64]inflight),
		batches:    make(chan batch, queueSize),
		results:    make(chan result, queueSize),
	}
}

// MarkDirty records pending work for sk. Repeated calls coalesce.
func (c *Coordinator) MarkDirty(sk *shopkeeper.Shopkeeper) {
	if sk == nil {
		return
	}
	if _, gone := c.tombstones[sk.ID()]; gone {
		return
	}
	c.dirty[sk.ID()] = sk
}

// OnDeleted drops any pending save of sk and schedules the removal of its
// stored record. The id is never saved again.
func (c *Coordinator) OnDeleted(sk *shopkeeper.Shopkeeper) {
	if sk == nil {
		return
	}
	delete(c.dirty, sk.ID())
	c.deleted[sk.ID()] = struct{}{}
	c.tombstones[sk.ID()] = struct{}{}
	c.SaveDelayed()
}

// Save flushes pending work now.
func (c *Coordinator) Save() {
	c.Flush()
}

// SaveDelayed schedules a flush after the save delay. An already scheduled
// flush is not postponed.
func (c *Coordinator) SaveDelayed() {
	if c.saveDelay == 0 {
		c.Flush()
		return
	}
	if c.delayedDue.IsZero() {
		c.delayedDue = c.now().Add(c.saveDelay)
	}
}

// HasPendingWork reports whether dirty or deleted shopkeepers wait for a
// flush.
func (c *Coordinator) HasPendingWork() bool {
	return len(c.dirty) > 0 || len(c.deleted) > 0
}

// Pending returns the number of batches handed to the writer whose result
// has not been processed yet.
func (c *Coordinator) Pending() int {
	return len(c.inflight)
}

// Process handles finished batches and runs a delayed flush once it is due.
func (c *Coordinator) Process() {
	c.drainResults()
	if !c.delayedDue.IsZero() && !c.now().Before(c.delayedDue) {
		c.Flush()
	}
}

// Flush captures every pending shopkeeper and hands the batch to the writer.
// It reports whether a batch was queued. When the writer queue is full the
// flush is retried after the save delay.
func (c *Coordinator) Flush() bool {
	if c.closed || !c.HasPendingWork() {
		return false
	}
	c.drainResults()
	if len(c.inflight) >= c.queueSize {
		c.logf("Storage queue is full (%d batches), retrying later.", len(c.inflight))
		c.delayedDue = time.Time{}
		c.scheduleRetry()
		return false
	}
	c.delayedDue = time.Time{}

	c.seq++
	b := batch{seq: c.seq}
	var pending inflight
	now := c.now().UTC()

	for _, shopID := range sortedIDs(c.dirty) {
		sk := c.dirty[shopID]
		record, token := sk.PersistState()
		raw, err := record.Encode()
		if err != nil {
			c.logf("%sFailed to encode shopkeeper data: %v", sk.LogPrefix(), err)
			continue
		}
		rec := Record{
			ID:        sk.ID(),
			UniqueID:  sk.UniqueID(),
			World:     sk.WorldName(),
			Data:      raw,
			UpdatedAt: now,
		}
		if coords, ok := sk.ChunkCoords(); ok {
			rec.ChunkX, rec.ChunkZ = coords.X, coords.Z
		}
		sk.OnPersisted(token)
		delete(c.dirty, shopID)
		b.records = append(b.records, rec)
		pending.saved = append(pending.saved, sk)
	}
	for shopID := range c.deleted {
		b.deleted = append(b.deleted, shopID)
	}
	sort.Ints(b.deleted)
	clear(c.deleted)
	pending.deleted = b.deleted

	if len(b.records) == 0 && len(b.deleted) == 0 {
		return false
	}
	c.inflight[b.seq] = pending
	c.batches <- b
	return true
}

// Wait blocks until every queued batch has been written and processed.
func (c *Coordinator) Wait(ctx context.Context) error {
	for len(c.inflight) > 0 {
		select {
		case res := <-c.results:
			c.handleResult(res)
		case <-ctx.Done():
			return fmt.Errorf("wait for storage: %w", ctx.Err())
		}
	}
	return nil
}

// Close flushes pending work, waits for the writer and stops it.
func (c *Coordinator) Close(ctx context.Context) error {
	c.Flush()
	err := c.Wait(ctx)
	if !c.closed {
		c.closed = true
		close(c.batches)
	}
	return err
}

// Run writes batches until Close. Writes outlive ctx cancellation so that
// the final flush on shutdown still reaches the store.
func (c *Coordinator) Run(ctx context.Context) error {
	base := context.WithoutCancel(ctx)
	for b := range c.batches {
		c.results <- result{seq: b.seq, err: c.write(base, b)}
	}
	return nil
}

func (c *Coordinator) write(ctx context.Context, b batch) error {
	ctx, span := c.tracer.Start(ctx, "storage.flush", trace.WithAttributes(
		attribute.Int("shopkeepers.saved", len(b.records)),
		attribute.Int("shopkeepers.deleted", len(b.deleted)),
	))
	defer span.End()

	if c.store == nil {
		err := fmt.Errorf("storage is not configured")
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.StorageWrite)
	defer cancel()

	if len(b.deleted) > 0 {
		if err := c.store.DeleteShopkeepers(ctx, b.deleted); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "delete shopkeepers")
			return fmt.Errorf("delete shopkeepers: %w", err)
		}
	}
	if len(b.records) > 0 {
		if err := c.store.SaveShopkeepers(ctx, b.records); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save shopkeepers")
			return fmt.Errorf("save shopkeepers: %w", err)
		}
	}
	return nil
}

func (c *Coordinator) drainResults() {
	for {
		select {
		case res := <-c.results:
			c.handleResult(res)
		default:
			return
		}
	}
}

func (c *Coordinator) handleResult(res result) {
	pending, ok := c.inflight[res.seq]
	if !ok {
		return
	}
	delete(c.inflight, res.seq)
	if res.err == nil {
		return
	}

	c.logf("Failed to save %d shopkeepers (%d deletions): %v", len(pending.saved), len(pending.deleted), res.err)
	for _, shopID := range pending.deleted {
		c.deleted[shopID] = struct{}{}
	}
	for _, sk := range pending.saved {
		// A delete queued after this batch may already have succeeded.
		if _, gone := c.tombstones[sk.ID()]; gone {
			continue
		}
		if sk.IsValid() {
			// Keeps sk dirty even if a newer capture is in flight.
			sk.MarkDirty()
		}
		c.dirty[sk.ID()] = sk
	}
	c.scheduleRetry()
}

func (c *Coordinator) scheduleRetry() {
	if c.delayedDue.IsZero() {
		delay := c.saveDelay
		if delay == 0 {
			delay = time.Second
		}
		c.delayedDue = c.now().Add(delay)
	}
}

func sortedIDs(m map[int]*shopkeeper.Shopkeeper) []int {
	ids := make([]int, 0, len(m))
	for shopID := range m {
		ids = append(ids, shopID)
	}
	sort.Ints(ids)
	return ids
}
