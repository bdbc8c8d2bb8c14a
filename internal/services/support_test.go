package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// fakeDB implements DBConn with pluggable behavior per test.
type fakeDB struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	BeginFunc    func(ctx context.Context) (Tx, error)
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if db.QueryFunc == nil {
		return nil, errors.New("unexpected Query call")
	}
	return db.QueryFunc(ctx, sql, args...)
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if db.QueryRowFunc == nil {
		return fakeRow{err: errors.New("unexpected QueryRow call")}
	}
	return db.QueryRowFunc(ctx, sql, args...)
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if db.ExecFunc == nil {
		return nil, errors.New("unexpected Exec call")
	}
	return db.ExecFunc(ctx, sql, args...)
}

func (db *fakeDB) Begin(ctx context.Context) (Tx, error) {
	if db.BeginFunc == nil {
		return nil, errors.New("unexpected Begin call")
	}
	return db.BeginFunc(ctx)
}

// fakeTx implements Tx and records commit/rollback calls.
type fakeTx struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	CommitErr    error

	commits   int
	rollbacks int
}

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if tx.QueryFunc == nil {
		return nil, errors.New("unexpected tx Query call")
	}
	return tx.QueryFunc(ctx, sql, args...)
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if tx.QueryRowFunc == nil {
		return fakeRow{err: errors.New("unexpected tx QueryRow call")}
	}
	return tx.QueryRowFunc(ctx, sql, args...)
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if tx.ExecFunc == nil {
		return nil, errors.New("unexpected tx Exec call")
	}
	return tx.ExecFunc(ctx, sql, args...)
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.commits++
	return tx.CommitErr
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.rollbacks++
	return nil
}

// fakeRow scans canned values into the destinations via reflection.
type fakeRow struct {
	values []any
	err    error
}

func rowFromValues(values ...any) Row {
	return fakeRow{values: values}
}

func rowWithError(err error) Row {
	return fakeRow{err: err}
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("fakeRow: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, v := range r.values {
		dv := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		rv := reflect.ValueOf(v)
		switch {
		case rv.Type().AssignableTo(dv.Type()):
			dv.Set(rv)
		case dv.Kind() == reflect.Pointer && rv.Type().AssignableTo(dv.Type().Elem()):
			p := reflect.New(dv.Type().Elem())
			p.Elem().Set(rv)
			dv.Set(p)
		default:
			return fmt.Errorf("fakeRow: cannot scan %T into %s", v, dv.Type())
		}
	}
	return nil
}

// fakeRows feeds fakeRow values one row at a time.
type fakeRows struct {
	rows   [][]any
	idx    int
	cur    []any
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.cur = r.rows[r.idx]
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return fakeRow{values: r.cur}.Scan(dest...)
}

func (r *fakeRows) Close() {
	r.closed = true
}

func (r *fakeRows) Err() error {
	return r.err
}

type fakeCommandTag struct {
	rowsAffected int64
}

func (t fakeCommandTag) RowsAffected() int64 {
	return t.rowsAffected
}

// fakeKV is an in-memory KVStore with optional error injection.
type fakeKV struct {
	data    map[string]string
	setErr  error
	getErr  error
	expires map[string]time.Duration
	deleted []string
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		data:    make(map[string]string),
		expires: make(map[string]time.Duration),
	}
}

func (kv *fakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if kv.setErr != nil {
		return kv.setErr
	}
	kv.data[key] = value
	kv.expires[key] = ttl
	return nil
}

func (kv *fakeKV) Get(ctx context.Context, key string) (string, error) {
	if kv.getErr != nil {
		return "", kv.getErr
	}
	val, ok := kv.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return val, nil
}

func (kv *fakeKV) Del(ctx context.Context, key string) error {
	delete(kv.data, key)
	kv.deleted = append(kv.deleted, key)
	return nil
}

func (kv *fakeKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	kv.expires[key] = ttl
	return nil
}
