package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Connector hands out the ready store connection. *Manager implements it.
type Connector interface {
	Open(ctx context.Context) (*sql.DB, error)
}

// Codec maps a record type onto a collection's columns.
type Codec[T any] struct {
	// Values returns the stored columns of rec in Collection.Columns order.
	Values func(rec T) []any
	// Key returns the primary-key values of rec in Collection.Key order.
	Key func(rec T) []any
	// Scan reads one row laid out as Collection.selectColumns.
	Scan func(scan func(dest ...any) error) (T, error)
	// SetKey stores a generated key on rec. Only used by generated-key collections.
	SetKey func(rec T, id int64) T
}

// Table is the keyed CRUD surface of one collection. Every call runs in its
// own transaction and returns after commit.
type Table[T any] struct {
	conn  Connector
	coll  Collection
	codec Codec[T]
}

// NewTable binds a collection and codec to a connection.
func NewTable[T any](conn Connector, coll Collection, codec Codec[T]) *Table[T] {
	return &Table[T]{conn: conn, coll: coll, codec: codec}
}

// Collection returns the table's declaration.
func (t *Table[T]) Collection() Collection {
	return t.coll
}

// Put inserts rec or replaces the record with the same primary key.
func (t *Table[T]) Put(ctx context.Context, rec T) error {
	cols := t.coll.Columns
	args := t.codec.Values(rec)
	if t.coll.GeneratedKey {
		key := t.codec.Key(rec)
		if len(key) != len(t.coll.Key) {
			return t.fail("put", ErrKeyShape)
		}
		cols = t.coll.selectColumns()
		args = append(key, args...)
	}

	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		quote(t.coll.Name), columnList(cols), placeholders(len(cols)))
	return t.withTx(ctx, "put", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

// Add inserts rec under a newly generated key and returns it with the key set.
func (t *Table[T]) Add(ctx context.Context, rec T) (T, error) {
	if !t.coll.GeneratedKey {
		var zero T
		return zero, t.fail("add", errors.New("collection has no generated key"))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(t.coll.Name), columnList(t.coll.Columns), placeholders(len(t.coll.Columns)))
	var id int64
	err := t.withTx(ctx, "add", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, t.codec.Values(rec)...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return t.codec.SetKey(rec, id), nil
}

// Get looks a record up by primary key. ok is false when no record matches.
func (t *Table[T]) Get(ctx context.Context, key ...any) (rec T, ok bool, err error) {
	if len(key) != len(t.coll.Key) {
		return rec, false, t.fail("get", ErrKeyShape)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		columnList(t.coll.selectColumns()), quote(t.coll.Name), keyPredicate(t.coll.Key))
	err = t.withTx(ctx, "get", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, key...)
		if err != nil {
			return err
		}
		found, err := t.scanRows(rows)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			rec, ok = found[0], true
		}
		return nil
	})
	return rec, ok, err
}

// GetAllByIndex returns every record whose indexed column equals value, in
// primary-key order. No match is an empty slice, not an error.
func (t *Table[T]) GetAllByIndex(ctx context.Context, index string, value any) ([]T, error) {
	idx, ok := t.coll.index(index)
	if !ok {
		return nil, t.fail("get by index", fmt.Errorf("%w: %q", ErrUnknownIndex, index))
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s",
		columnList(t.coll.selectColumns()), quote(t.coll.Name), quote(idx.Column), columnList(t.coll.Key))
	var out []T
	err := t.withTx(ctx, "get by index", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, value)
		if err != nil {
			return err
		}
		out, err = t.scanRows(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAll returns every record in primary-key order.
func (t *Table[T]) GetAll(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		columnList(t.coll.selectColumns()), quote(t.coll.Name), columnList(t.coll.Key))
	var out []T
	err := t.withTx(ctx, "get all", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		out, err = t.scanRows(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByKey removes the record with the given primary key. Deleting a key
// that does not exist succeeds.
func (t *Table[T]) DeleteByKey(ctx context.Context, key ...any) error {
	if len(key) != len(t.coll.Key) {
		return t.fail("delete", ErrKeyShape)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", quote(t.coll.Name), keyPredicate(t.coll.Key))
	return t.withTx(ctx, "delete", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, key...)
		return err
	})
}

// Count returns the number of records in the collection.
func (t *Table[T]) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quote(t.coll.Name))
	var n int
	err := t.withTx(ctx, "count", func(ctx context.Context, tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query).Scan(&n)
	})
	return n, err
}

// withTx runs fn in one transaction on the collection. The transaction is
// detached from ctx cancellation so a started commit always completes.
func (t *Table[T]) withTx(ctx context.Context, op string, fn func(context.Context, *sql.Tx) error) error {
	db, err := t.conn.Open(ctx)
	if err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return t.fail(op, err)
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return t.fail(op, err)
	}
	if err := tx.Commit(); err != nil {
		return t.fail(op, err)
	}
	return nil
}

func (t *Table[T]) scanRows(rows *sql.Rows) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		rec, err := t.codec.Scan(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *Table[T]) fail(op string, err error) error {
	return &StorageError{Op: op, Collection: t.coll.Name, Err: err}
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func keyPredicate(key []string) string {
	parts := make([]string, len(key))
	for i, c := range key {
		parts[i] = quote(c) + " = ?"
	}
	return strings.Join(parts, " AND ")
}
