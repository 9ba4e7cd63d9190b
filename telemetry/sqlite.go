package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	_ "github.com/mattn/go-sqlite3"

	"github.com/RyanBlaney/notch-review/logging"
)

// notInstanced is stored in samples.inst for plain messages
const notInstanced = -1

// SQLiteLog is a Log backed by a SQLite database holding one row per logged
// field value. Records keep their log order through samples.seq.
type SQLiteLog struct {
	db      *sql.DB
	catalog map[string]MessageType
	logger  logging.Logger
}

// OpenSQLite opens a log database read-only and loads its message catalog.
func OpenSQLite(ctx context.Context, path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, "mode=ro"))
	if err != nil {
		return nil, fmt.Errorf("opening log database: %w", err)
	}

	l := &SQLiteLog{
		db: db,
		logger: logging.WithFields(logging.Fields{
			"component": "sqlite_log",
			"path":      path,
		}),
	}
	if err := l.loadCatalog(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	l.logger.Debug("log opened", logging.Fields{"messages": len(l.catalog)})
	return l, nil
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func (l *SQLiteLog) loadCatalog(ctx context.Context) (err error) {
	rows, err := l.db.QueryContext(ctx, selectCatalogSQL)
	if err != nil {
		return fmt.Errorf("reading message catalog: %w", err)
	}
	defer closeWithError(rows, &err)

	type entry struct {
		fields    map[string]struct{}
		instances map[int]struct{}
	}
	entries := make(map[string]*entry)

	for rows.Next() {
		var (
			msg, field string
			inst       int
		)
		if err = rows.Scan(&msg, &inst, &field); err != nil {
			return fmt.Errorf("scanning message catalog: %w", err)
		}
		e, ok := entries[msg]
		if !ok {
			e = &entry{fields: make(map[string]struct{}), instances: make(map[int]struct{})}
			entries[msg] = e
		}
		e.fields[field] = struct{}{}
		if inst != notInstanced {
			e.instances[inst] = struct{}{}
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("reading message catalog: %w", err)
	}

	l.catalog = make(map[string]MessageType, len(entries))
	for msg, e := range entries {
		t := MessageType{Fields: slices.Sorted(maps.Keys(e.fields))}
		if len(e.instances) > 0 {
			t.Instances = slices.Sorted(maps.Keys(e.instances))
		}
		l.catalog[msg] = t
	}
	return nil
}

// Close releases the database handle
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

// MessageTypes returns every message type present in the log.
func (l *SQLiteLog) MessageTypes() map[string]MessageType {
	return maps.Clone(l.catalog)
}

func (l *SQLiteLog) check(msg, field string) (MessageType, error) {
	t, ok := l.catalog[msg]
	if !ok {
		return t, fmt.Errorf("%s: %w", msg, ErrNoMessage)
	}
	if !t.HasField(field) {
		return t, fmt.Errorf("%s.%s: %w", msg, field, ErrNoField)
	}
	return t, nil
}

func (l *SQLiteLog) query(query string, args ...any) (values []float64, err error) {
	rows, err := l.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var v sql.NullFloat64
		if err = rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		if v.Valid {
			values = append(values, v.Float64)
		} else {
			values = append(values, math.NaN())
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}
	if values == nil {
		values = []float64{}
	}
	return values, nil
}

// Get returns one field of every record of msg in log order.
func (l *SQLiteLog) Get(msg, field string) ([]float64, error) {
	if _, err := l.check(msg, field); err != nil {
		return nil, err
	}
	return l.query(selectFieldSQL, msg, field)
}

// GetInstance returns one field of the records of one instance of msg.
func (l *SQLiteLog) GetInstance(msg string, instance int, field string) ([]float64, error) {
	t, err := l.check(msg, field)
	if err != nil {
		return nil, err
	}
	if !t.HasInstance(instance) {
		return nil, fmt.Errorf("%s[%d]: %w", msg, instance, ErrNoInstance)
	}
	return l.query(selectInstanceFieldSQL, msg, instance, field)
}

// Param returns the last stored value of a parameter.
func (l *SQLiteLog) Param(name string) (float64, bool) {
	var v float64
	err := l.db.QueryRowContext(context.Background(), selectParamSQL, name).Scan(&v)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			l.logger.Error(err, "reading parameter", logging.Fields{"param": name})
		}
		return 0, false
	}
	return v, true
}

// ParamLister is implemented by logs that can enumerate their parameters
type ParamLister interface {
	Params() map[string]float64
}

// WriteSQLite exports src into a new or existing SQLite database at path.
// Parameters are exported when src implements ParamLister.
func WriteSQLite(ctx context.Context, path string, src Log) (err error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, "_journal_mode=WAL&_synchronous=NORMAL"))
	if err != nil {
		return fmt.Errorf("opening log database: %w", err)
	}
	defer closeWithError(db, &err)

	if _, err = db.ExecContext(ctx, initSchemaSQL); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSampleSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	types := src.MessageTypes()
	for _, msg := range slices.Sorted(maps.Keys(types)) {
		if err = writeMessage(ctx, stmt, src, msg, types[msg]); err != nil {
			return err
		}
	}

	if pl, ok := src.(ParamLister); ok {
		params := pl.Params()
		for _, name := range slices.Sorted(maps.Keys(params)) {
			if _, err = tx.ExecContext(ctx, insertParamSQL, name, params[name]); err != nil {
				return fmt.Errorf("inserting param %s: %w", name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing log: %w", err)
	}
	committed = true
	return nil
}

// writeMessage stores every field of msg. For instanced messages the seq
// column follows the per-instance order, offset per instance so that Get
// returns instances one after another.
func writeMessage(ctx context.Context, stmt *sql.Stmt, src Log, msg string, t MessageType) error {
	insert := func(inst int, field string, seqBase int, values []float64) error {
		for i, v := range values {
			var value sql.NullFloat64
			if !math.IsNaN(v) {
				value = sql.NullFloat64{Float64: v, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, msg, inst, field, seqBase+i, value); err != nil {
				return fmt.Errorf("inserting %s.%s: %w", msg, field, err)
			}
		}
		return nil
	}

	if !t.Instanced() {
		for _, field := range t.Fields {
			values, err := src.Get(msg, field)
			if err != nil {
				return err
			}
			if err := insert(notInstanced, field, 0, values); err != nil {
				return err
			}
		}
		return nil
	}

	seqBase := 0
	for _, inst := range t.Instances {
		n := 0
		for _, field := range t.Fields {
			values, err := src.GetInstance(msg, inst, field)
			if err != nil {
				return err
			}
			if err := insert(inst, field, seqBase, values); err != nil {
				return err
			}
			n = max(n, len(values))
		}
		seqBase += n
	}
	return nil
}
