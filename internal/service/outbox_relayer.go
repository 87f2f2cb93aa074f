package service

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"openbands/internal/model"
	"openbands/internal/pkg"
	"openbands/internal/repository/mysql"
)

type Sender func(ctx context.Context, ob *model.EventOutbox) error

// OutboxRelayer drains pending event rows to the sender on a ticker.
// Failures mark the row for retry; the event stays in the store until sent.
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(db *gorm.DB, sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
	}
}

func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		log.Printf("outbox query err: %v", err)
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			_ = r.repo.MarkFailed(ctx, ob.ID)
			continue
		}
		_ = r.repo.MarkSent(ctx, ob.ID)
	}
}

// KafkaSender publishes outbox rows keyed by community.
func KafkaSender(producer *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.EventOutbox) error {
		return producer.Send(ctx, pkg.MakeEventKey(ob.CommunityID), []byte(ob.Payload))
	}
}

// LogSender is the fallback when no kafka brokers are configured.
func LogSender(ctx context.Context, ob *model.EventOutbox) error {
	log.Printf("OUTBOX SEND type=%s community=%d address=%s payload=%s", ob.EventType, ob.CommunityID, ob.Address, ob.Payload)
	return nil
}
