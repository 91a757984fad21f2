package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"diarybook/internal/amqp"
	"diarybook/internal/core"
	"diarybook/internal/log"
	"diarybook/internal/stats"
	"diarybook/internal/storage"
)

// Store is the connection a Journal reads and writes through.
type Store interface {
	storage.Connector
	Close() error
}

// Publisher announces committed writes. *amqp.Client implements it.
type Publisher interface {
	PublishRecordChange(ctx context.Context, msg *amqp.RecordChangeMessage) error
	Close() error
}

// Journal is the single entry point for diary and finance operations. Input
// is validated before any transaction starts; change notifications go out
// only after commit.
type Journal struct {
	store     Store
	repo      *storage.Repository
	stats     *stats.Aggregator
	publisher Publisher
	now       func() time.Time
	loc       *time.Location
	logger    *log.Logger
	events    *log.StructuredLogger
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock sets the source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// WithLocation sets the zone in which "today" is observed.
func WithLocation(loc *time.Location) Option {
	return func(j *Journal) {
		if loc != nil {
			j.loc = loc
		}
	}
}

// WithPublisher enables change notifications.
func WithPublisher(p Publisher) Option {
	return func(j *Journal) { j.publisher = p }
}

// WithLogger sets the journal logger.
func WithLogger(logger *log.Logger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

func NewJournal(store Store, opts ...Option) *Journal {
	j := &Journal{
		store:  store,
		repo:   storage.NewRepository(store),
		now:    time.Now,
		loc:    time.UTC,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.logger = j.logger.WithComponent(log.ComponentJournal)
	j.events = log.NewStructuredLogger(j.logger)
	j.stats = stats.NewAggregator(j.repo.FinanceRecords, j.logger.WithComponent(log.ComponentStats).Slog())
	return j
}

// Today is the current calendar day in the journal's location.
func (j *Journal) Today() core.Date {
	return core.DateOf(j.now().In(j.loc))
}

// Ready opens the store, running any pending schema upgrade.
func (j *Journal) Ready(ctx context.Context) error {
	_, err := j.store.Open(ctx)
	return err
}

// SaveDiaryEntry stores text for (date, category), replacing any previous
// entry for the same pair.
func (j *Journal) SaveDiaryEntry(ctx context.Context, date core.Date, category, text string) (core.DiaryEntry, error) {
	entry := core.DiaryEntry{
		Date:      date,
		Category:  strings.TrimSpace(category),
		Text:      text,
		Timestamp: j.stamp(),
	}
	if err := entry.Validate(); err != nil {
		return core.DiaryEntry{}, err
	}

	if err := j.repo.Entries.Put(ctx, entry); err != nil {
		return core.DiaryEntry{}, fmt.Errorf("save diary entry: %w", err)
	}

	key := entry.Date.String() + "/" + entry.Category
	j.written(ctx, storage.EntriesCollection.Name, amqp.OpPut, key, entry.Date.String())
	return entry, nil
}

// LoadDiaryEntries returns every entry saved for date.
func (j *Journal) LoadDiaryEntries(ctx context.Context, date core.Date) ([]core.DiaryEntry, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	entries, err := j.repo.Entries.GetAllByIndex(ctx, "date", date)
	if err != nil {
		return nil, fmt.Errorf("load diary entries: %w", err)
	}
	return entries, nil
}

// SaveFinanceRecord records an amount spent today.
func (j *Journal) SaveFinanceRecord(ctx context.Context, category, amount, note string) (core.FinanceRecord, error) {
	return j.SaveFinanceRecordOn(ctx, j.Today(), category, amount, note)
}

// SaveFinanceRecordOn records an amount for an explicit date. Each call
// creates a new record.
func (j *Journal) SaveFinanceRecordOn(ctx context.Context, date core.Date, category, amount, note string) (core.FinanceRecord, error) {
	value, err := core.ParseAmount(amount)
	if err != nil {
		return core.FinanceRecord{}, err
	}
	rec := core.FinanceRecord{
		Date:      date,
		Category:  strings.TrimSpace(category),
		Amount:    value,
		Note:      strings.TrimSpace(note),
		Timestamp: j.stamp(),
	}
	if err := rec.Validate(); err != nil {
		return core.FinanceRecord{}, err
	}

	rec, err = j.repo.FinanceRecords.Add(ctx, rec)
	if err != nil {
		return core.FinanceRecord{}, fmt.Errorf("save finance record: %w", err)
	}

	j.written(ctx, storage.FinanceRecordsCollection.Name, amqp.OpAdd, strconv.FormatInt(rec.ID, 10), rec.Date.String())
	return rec, nil
}

// LoadFinanceRecords returns every record dated date.
func (j *Journal) LoadFinanceRecords(ctx context.Context, date core.Date) ([]core.FinanceRecord, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	records, err := j.repo.FinanceRecords.GetAllByIndex(ctx, "date", date)
	if err != nil {
		return nil, fmt.Errorf("load finance records: %w", err)
	}
	return records, nil
}

// ListFinanceCategories returns every category in id order.
func (j *Journal) ListFinanceCategories(ctx context.Context) ([]core.FinanceCategory, error) {
	cats, err := j.repo.FinanceCategories.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list finance categories: %w", err)
	}
	return cats, nil
}

// AddFinanceCategory creates a category. Names need not be unique.
func (j *Journal) AddFinanceCategory(ctx context.Context, name string) (core.FinanceCategory, error) {
	cat := core.FinanceCategory{Name: strings.TrimSpace(name)}
	if err := cat.Validate(); err != nil {
		return core.FinanceCategory{}, err
	}

	cat, err := j.repo.FinanceCategories.Add(ctx, cat)
	if err != nil {
		return core.FinanceCategory{}, fmt.Errorf("add finance category: %w", err)
	}

	j.written(ctx, storage.FinanceCategoriesCollection.Name, amqp.OpAdd, strconv.FormatInt(cat.ID, 10), "")
	return cat, nil
}

// DeleteFinanceCategory removes a category. Records that name it are kept,
// and deleting an unknown id succeeds.
func (j *Journal) DeleteFinanceCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return &core.ValidationError{Field: "id", Err: fmt.Errorf("%w: %d", core.ErrInvalidID, id)}
	}
	if err := j.repo.FinanceCategories.DeleteByKey(ctx, id); err != nil {
		return fmt.Errorf("delete finance category: %w", err)
	}

	j.written(ctx, storage.FinanceCategoriesCollection.Name, amqp.OpDelete, strconv.FormatInt(id, 10), "")
	return nil
}

// ComputeStats summarizes spending relative to today.
func (j *Journal) ComputeStats(ctx context.Context, today core.Date) (core.Stats, error) {
	if err := today.Validate(); err != nil {
		return core.Stats{}, err
	}
	s, err := j.stats.Stats(ctx, today)
	if err != nil {
		return core.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	return s, nil
}

// Close releases the store and the publisher.
func (j *Journal) Close() error {
	var errs []error

	if j.store != nil {
		if err := j.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if j.publisher != nil {
		if err := j.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close journal: %w", errors.Join(errs...))
	}
	return nil
}

// stamp is the write instant truncated to the millisecond precision stored on disk.
func (j *Journal) stamp() time.Time {
	return j.now().UTC().Truncate(time.Millisecond)
}

// written logs a committed write and publishes its change notification. A
// failed publish is logged; the write already succeeded.
func (j *Journal) written(ctx context.Context, collection, op, key, date string) {
	j.events.LogRecordWritten(ctx, op, collection, key, date)

	if j.publisher == nil {
		return
	}
	msg := amqp.NewRecordChangeMessage(collection, op, key, date)
	if err := j.publisher.PublishRecordChange(ctx, msg); err != nil {
		j.events.LogError(ctx, "Failed to publish record change", err, log.OpPublish,
			log.NewFields().WithRecord(collection, key).WithDate(date))
	}
}
