// Package audit is the fire-and-forget activity log side-channel. State
// transitions are recorded as events, batched by a worker pool and handed to
// pluggable processors. The request path never blocks on it: when the
// channel is full the event is dropped and counted in the log.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hemolink/bloodbank-service/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
)

// Event describes one audited action: who did what to which entity.
type Event struct {
	OccurredAt time.Time `json:"occurred_at"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	EntityID   string    `json:"entity_id"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// Recorder is what the service layer depends on.
type Recorder interface {
	Record(event Event)
}

// Processor consumes a flushed batch of events.
type Processor interface {
	Process(batch []Event) error
}

type PoolConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	ChannelSize   int
}

// WorkerPool batches events by size and time and fans them out to every
// processor.
type WorkerPool struct {
	inputCh       chan Event
	processors    []Processor
	batchSize     int
	flushInterval time.Duration
	log           *slog.Logger

	wg sync.WaitGroup
}

func NewWorkerPool(cfg PoolConfig, log *slog.Logger, processors ...Processor) *WorkerPool {
	return &WorkerPool{
		inputCh:       make(chan Event, cfg.ChannelSize),
		processors:    processors,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		log:           log,
	}
}

// Record enqueues an event without blocking. Dropped events are logged.
func (p *WorkerPool) Record(event Event) {
	select {
	case p.inputCh <- event:
	default:
		p.log.Warn("audit channel full, dropping event",
			slog.String("action", event.Action),
			slog.String("entity_id", event.EntityID),
		)
	}
}

func (p *WorkerPool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.worker(ctx)
		}()
	}
}

// Wait blocks until every worker has drained and exited. Call after the
// context passed to Start is cancelled.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) worker(ctx context.Context) {
	var batch []Event

	timer := time.NewTimer(p.flushInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				p.processBatch(batch)
			}

			return

		case event := <-p.inputCh:
			batch = append(batch, event)
			if len(batch) >= p.batchSize {
				p.processBatch(batch)
				batch = nil

				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(p.flushInterval)
			}

		case <-timer.C:
			if len(batch) > 0 {
				p.processBatch(batch)
				batch = nil
			}

			timer.Reset(p.flushInterval)
		}
	}
}

func (p *WorkerPool) processBatch(batch []Event) {
	for _, proc := range p.processors {
		if err := proc.Process(batch); err != nil {
			p.log.Error("audit processor failed", sl.Err(err))
		}
	}
}

// SlogProcessor writes events to the structured log.
type SlogProcessor struct {
	Log *slog.Logger
}

func (p *SlogProcessor) Process(batch []Event) error {
	for _, event := range batch {
		p.Log.Info("audit event",
			slog.String("actor", event.Actor),
			slog.String("action", event.Action),
			slog.String("entity_id", event.EntityID),
			slog.String("old_status", event.OldStatus),
			slog.String("new_status", event.NewStatus),
			slog.Time("occurred_at", event.OccurredAt),
		)
	}

	return nil
}

// PostgresProcessor batch-inserts events into the audit_log table.
type PostgresProcessor struct {
	DB *sqlx.DB
}

func (p *PostgresProcessor) Process(batch []Event) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO audit_log (occurred_at, actor, action, entity_id, old_status, new_status, message) VALUES `)

	params := make([]interface{}, 0, len(batch)*7)
	paramIndex := 1

	for i, event := range batch {
		if i > 0 {
			sb.WriteString(",")
		}

		sb.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			paramIndex, paramIndex+1, paramIndex+2, paramIndex+3, paramIndex+4, paramIndex+5, paramIndex+6))
		paramIndex += 7

		params = append(params, event.OccurredAt, event.Actor, event.Action,
			event.EntityID, event.OldStatus, event.NewStatus, event.Message)
	}

	if _, err := p.DB.Exec(sb.String(), params...); err != nil {
		return fmt.Errorf("audit postgres processor: %w", err)
	}

	return nil
}

// NopRecorder is used in tests and wherever auditing is switched off.
type NopRecorder struct{}

func (NopRecorder) Record(Event) {}
