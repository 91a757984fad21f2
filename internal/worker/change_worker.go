package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"diarybook/internal/amqp"
	"diarybook/internal/core"
	"diarybook/internal/storage"
)

// Change is a change notification together with the record it names, as
// currently stored. Found is false for deletes and for records that were
// removed or replaced before the lookup.
type Change struct {
	amqp.RecordChangeMessage `yaml:",inline"`
	Record                   any  `json:"record,omitempty" yaml:"record,omitempty"`
	Found                    bool `json:"found" yaml:"found"`
}

// ChangeWorker resolves change notifications against the store and hands
// the result to a sink.
type ChangeWorker struct {
	repo   *storage.Repository
	sink   func(context.Context, Change) error
	logger *slog.Logger
}

func NewChangeWorker(conn storage.Connector, sink func(context.Context, Change) error, logger *slog.Logger) *ChangeWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeWorker{
		repo:   storage.NewRepository(conn),
		sink:   sink,
		logger: logger,
	}
}

// HandleRecordChange processes a single change message from AMQP. A
// returned error requeues the message.
func (w *ChangeWorker) HandleRecordChange(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	w.logger.DebugContext(ctx, "Processing change message",
		"collection", msg.Collection,
		"op", msg.Op,
		"key", msg.Key)

	change := Change{RecordChangeMessage: *msg}
	if msg.Op != amqp.OpDelete {
		record, found, err := w.lookup(ctx, msg.Collection, msg.Key)
		if err != nil {
			return fmt.Errorf("resolve %s %s: %w", msg.Collection, msg.Key, err)
		}
		change.Record, change.Found = record, found
	}

	if err := w.sink(ctx, change); err != nil {
		return fmt.Errorf("deliver change: %w", err)
	}
	return nil
}

func (w *ChangeWorker) lookup(ctx context.Context, collection, key string) (any, bool, error) {
	switch collection {
	case storage.EntriesCollection.Name:
		date, category, ok := strings.Cut(key, "/")
		day, err := core.ParseDate(date)
		if !ok || err != nil {
			return w.malformed(ctx, collection, key)
		}
		return found(w.repo.Entries.Get(ctx, day, category))

	case storage.FinanceRecordsCollection.Name:
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return w.malformed(ctx, collection, key)
		}
		return found(w.repo.FinanceRecords.Get(ctx, id))

	case storage.FinanceCategoriesCollection.Name:
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return w.malformed(ctx, collection, key)
		}
		return found(w.repo.FinanceCategories.Get(ctx, id))
	}

	w.logger.WarnContext(ctx, "Change for unknown collection", "collection", collection)
	return nil, false, nil
}

// malformed drops the lookup for a key that can never resolve; requeueing
// the message would redeliver it forever.
func (w *ChangeWorker) malformed(ctx context.Context, collection, key string) (any, bool, error) {
	w.logger.WarnContext(ctx, "Malformed change key", "collection", collection, "key", key)
	return nil, false, nil
}

// found adapts a typed Table.Get result; a missing record yields no value.
func found[T any](rec T, ok bool, err error) (any, bool, error) {
	if err != nil || !ok {
		return nil, false, err
	}
	return rec, true, nil
}
