package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"diarybook/internal/core"
)

// Repository bundles the tables of every declared collection.
type Repository struct {
	Entries           *Table[core.DiaryEntry]
	FinanceCategories *Table[core.FinanceCategory]
	FinanceRecords    *Table[core.FinanceRecord]
}

// NewRepository binds all collections to conn.
func NewRepository(conn Connector) *Repository {
	return &Repository{
		Entries:           NewTable(conn, EntriesCollection, entryCodec),
		FinanceCategories: NewTable(conn, FinanceCategoriesCollection, categoryCodec),
		FinanceRecords:    NewTable(conn, FinanceRecordsCollection, recordCodec),
	}
}

var entryCodec = Codec[core.DiaryEntry]{
	Values: func(e core.DiaryEntry) []any {
		return []any{e.Date, e.Category, e.Text, e.Timestamp.UnixMilli()}
	},
	Key: func(e core.DiaryEntry) []any {
		return []any{e.Date, e.Category}
	},
	Scan: func(scan func(dest ...any) error) (core.DiaryEntry, error) {
		var (
			e  core.DiaryEntry
			ms int64
		)
		if err := scan(&e.Date, &e.Category, &e.Text, &ms); err != nil {
			return core.DiaryEntry{}, err
		}
		e.Timestamp = fromMillis(ms)
		return e, nil
	},
}

var categoryCodec = Codec[core.FinanceCategory]{
	Values: func(c core.FinanceCategory) []any {
		return []any{c.Name}
	},
	Key: func(c core.FinanceCategory) []any {
		return []any{c.ID}
	},
	Scan: func(scan func(dest ...any) error) (core.FinanceCategory, error) {
		var c core.FinanceCategory
		err := scan(&c.ID, &c.Name)
		return c, err
	},
	SetKey: func(c core.FinanceCategory, id int64) core.FinanceCategory {
		c.ID = id
		return c
	},
}

var recordCodec = Codec[core.FinanceRecord]{
	Values: func(r core.FinanceRecord) []any {
		return []any{r.Date, r.Category, r.Amount.String(), r.Note, r.Timestamp.UnixMilli()}
	},
	Key: func(r core.FinanceRecord) []any {
		return []any{r.ID}
	},
	Scan: func(scan func(dest ...any) error) (core.FinanceRecord, error) {
		var (
			r      core.FinanceRecord
			amount string
			ms     int64
		)
		if err := scan(&r.ID, &r.Date, &r.Category, &amount, &r.Note, &ms); err != nil {
			return core.FinanceRecord{}, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return core.FinanceRecord{}, err
		}
		r.Amount = d
		r.Timestamp = fromMillis(ms)
		return r, nil
	},
	SetKey: func(r core.FinanceRecord, id int64) core.FinanceRecord {
		r.ID = id
		return r
	},
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
