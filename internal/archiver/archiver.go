package archiver

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hookgw/hookgw/internal/kafka"
	"github.com/hookgw/hookgw/internal/model"
	"github.com/hookgw/hookgw/internal/repository"
)

// Consumer is the slice of the Kafka consumer the archiver needs.
type Consumer interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Archiver:
// - fetches captured-request envelopes from Kafka,
// - batches them into ClickHouse for the export/reporting side,
// - commits offsets only after the batch is written.
type Archiver struct {
	Consumer Consumer
	Archive  repository.CHRequestsRepository

	BatchSize int           // max buffered rows per flush
	BatchWait time.Duration // max time to wait before flush
}

// New builds an archiver with sane defaults.
func New(consumer Consumer, archive repository.CHRequestsRepository) *Archiver {
	return &Archiver{
		Consumer:  consumer,
		Archive:   archive,
		BatchSize: 200,
		BatchWait: 500 * time.Millisecond,
	}
}

type pending struct {
	row repository.ArchiveRow
	msg kafka.Message
}

// Run consumes until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) error {
	if a.BatchSize <= 0 {
		a.BatchSize = 200
	}
	if a.BatchWait <= 0 {
		a.BatchWait = 500 * time.Millisecond
	}

	batch := make([]pending, 0, a.BatchSize)
	ticker := time.NewTicker(a.BatchWait)
	defer ticker.Stop()

	msgCh := make(chan kafka.Message, a.BatchSize)

	// fetcher
	go func() {
		defer close(msgCh)
		for {
			m, err := a.Consumer.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[archiver] kafka fetch err: %v", err)
				time.Sleep(200 * time.Millisecond)
				continue
			}
			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			a.flush(context.Background(), &batch)
			return ctx.Err()

		case m, ok := <-msgCh:
			if !ok {
				a.flush(context.Background(), &batch)
				return ctx.Err()
			}
			var env model.Envelope
			if err := json.Unmarshal(m.Value, &env); err != nil {
				// poison message: log and commit past it
				log.Printf("[archiver] bad envelope at offset %d: %v", m.Offset, err)
				_ = a.Consumer.Commit(ctx, m)
				continue
			}
			batch = append(batch, pending{
				row: repository.ArchiveRow{UserID: env.UserID, Request: env.Request},
				msg: m,
			})
			if len(batch) >= a.BatchSize {
				a.flush(ctx, &batch)
			}

		case <-ticker.C:
			a.flush(ctx, &batch)
		}
	}
}

// flush writes the batch and commits its offsets. On write failure the
// batch is kept and retried on the next tick; offsets stay uncommitted.
func (a *Archiver) flush(ctx context.Context, batch *[]pending) {
	if len(*batch) == 0 {
		return
	}

	rows := make([]repository.ArchiveRow, 0, len(*batch))
	for _, p := range *batch {
		rows = append(rows, p.row)
	}

	if err := a.Archive.InsertBatch(ctx, rows); err != nil {
		log.Printf("[archiver] clickhouse insert failed (%d rows, will retry): %v", len(rows), err)
		return
	}

	for _, p := range *batch {
		if err := a.Consumer.Commit(ctx, p.msg); err != nil {
			log.Printf("[archiver] commit offset %d failed: %v", p.msg.Offset, err)
		}
	}

	*batch = (*batch)[:0]
}
