package session

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canonical/sqlmapper/internal/binding"
	"github.com/canonical/sqlmapper/internal/errs"
	"github.com/canonical/sqlmapper/internal/registry"
	"github.com/canonical/sqlmapper/internal/typeinfo"
)

// DB is the database/sql-backed Session implementation. Every call is
// logged with a per-invocation correlation id, matching §B's "one
// structured log line per round trip" requirement.
type DB struct {
	sqldb *sql.DB
	reg   *registry.Registry
	log   *zap.SugaredLogger
	id    dbID
}

// Open wraps an already-opened *sql.DB with a statement registry. Callers
// are responsible for opening sqldb with the driver of their choice
// (mattn/go-sqlite3 in this module's own example and tests).
func Open(sqldb *sql.DB, reg *registry.Registry, log *zap.SugaredLogger) *DB {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	db := &DB{sqldb: sqldb, reg: reg, log: log}
	db.id = sharedStatementCache().registerDB(db)
	return db
}

func (db *DB) bind(statementID string, param any) (*registry.Statement, *binding.BoundSql, error) {
	stmt, ok := db.reg.Get(statementID)
	if !ok {
		return nil, nil, errs.Wrap(errs.MissingStatement, "%s", statementID)
	}
	bound, err := stmt.Compiled.Bind(param)
	if err != nil {
		return nil, nil, err
	}
	return stmt, bound, nil
}

func resolveArgs(params []binding.ParameterRef) ([]any, error) {
	args := make([]any, len(params))
	for i, p := range params {
		handler, err := typeinfo.ResolveHandler(p.TypeHandler)
		if err != nil {
			return nil, err
		}
		v, err := handler.SetParameter(p.Value)
		if err != nil {
			return nil, errs.Wrap(errs.SessionError, "parameter %q: %s", p.Expression, err)
		}
		args[i] = v
	}
	return args, nil
}

// preparedFor returns a *sql.Stmt for bound.SQL. A statement whose tree is
// static (its SQL text never changes across calls) is prepared once and
// shared through the process-wide cache; a dynamic statement's text can
// differ on every call, so it is prepared ad hoc and left for the driver
// and database to manage.
func (db *DB) preparedFor(ctx context.Context, stmt *registry.Statement, statementID string, bound *binding.BoundSql) (*sql.Stmt, error) {
	if !stmt.Compiled.IsDynamic {
		return sharedStatementCache().prepare(ctx, db, statementID, bound.SQL)
	}
	return db.sqldb.PrepareContext(ctx, bound.SQL)
}

func (db *DB) exec(ctx context.Context, statementID string, param any) (sql.Result, error) {
	corrID := uuid.NewString()
	stmt, bound, err := db.bind(statementID, param)
	if err != nil {
		return nil, err
	}
	args, err := resolveArgs(bound.Parameters)
	if err != nil {
		return nil, err
	}
	prepared, err := db.preparedFor(ctx, stmt, statementID, bound)
	if err != nil {
		db.log.Errorw("prepare failed", "corr_id", corrID, "statement", statementID, "error", err)
		return nil, errs.Wrap(errs.SessionError, "preparing %q: %s", statementID, err)
	}
	if stmt.Compiled.IsDynamic {
		defer prepared.Close()
	}
	res, err := prepared.ExecContext(ctx, args...)
	db.log.Debugw("exec", "corr_id", corrID, "statement", statementID, "sql", bound.SQL, "error", err)
	if err != nil {
		return nil, errs.Wrap(errs.SessionError, "executing %q: %s", statementID, err)
	}
	return res, nil
}

func (db *DB) Insert(ctx context.Context, statementID string, param any) (int64, error) {
	res, err := db.exec(ctx, statementID, param)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (db *DB) Update(ctx context.Context, statementID string, param any) (int64, error) {
	res, err := db.exec(ctx, statementID, param)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (db *DB) Delete(ctx context.Context, statementID string, param any) (int64, error) {
	res, err := db.exec(ctx, statementID, param)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (db *DB) query(ctx context.Context, statementID string, param any) (*sql.Rows, error) {
	corrID := uuid.NewString()
	stmt, bound, err := db.bind(statementID, param)
	if err != nil {
		return nil, err
	}
	args, err := resolveArgs(bound.Parameters)
	if err != nil {
		return nil, err
	}
	prepared, err := db.preparedFor(ctx, stmt, statementID, bound)
	if err != nil {
		db.log.Errorw("prepare failed", "corr_id", corrID, "statement", statementID, "error", err)
		return nil, errs.Wrap(errs.SessionError, "preparing %q: %s", statementID, err)
	}
	if stmt.Compiled.IsDynamic {
		// Safe to close immediately: database/sql keeps a Stmt's driver
		// handle alive until every Rows opened from it is closed.
		defer prepared.Close()
	}
	rows, err := prepared.QueryContext(ctx, args...)
	db.log.Debugw("query", "corr_id", corrID, "statement", statementID, "sql", bound.SQL, "error", err)
	if err != nil {
		return nil, errs.Wrap(errs.SessionError, "querying %q: %s", statementID, err)
	}
	return rows, nil
}

func (db *DB) SelectOne(ctx context.Context, statementID string, param any, dest any) error {
	rows, err := db.query(ctx, statementID, param)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := scanInto(rows, dest); err != nil {
		return err
	}
	return rows.Close()
}

func (db *DB) SelectList(ctx context.Context, statementID string, param any, bounds *RowBounds, dest any) error {
	rows, err := db.query(ctx, statementID, param)
	if err != nil {
		return err
	}
	defer rows.Close()

	sliceVal := reflect.ValueOf(dest).Elem()
	elemType := sliceVal.Type().Elem()

	skip, take := boundsOf(bounds)
	out := reflect.MakeSlice(sliceVal.Type(), 0, 0)
	index := 0
	for rows.Next() {
		if index < skip {
			index++
			if err := skipRow(rows, elemType); err != nil {
				return err
			}
			continue
		}
		if take >= 0 && index-skip >= take {
			break
		}
		elem := newElem(elemType)
		if err := scanInto(rows, elem.Interface()); err != nil {
			return err
		}
		out = reflect.Append(out, elem.Elem())
		index++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	sliceVal.Set(out)
	return nil
}

func (db *DB) SelectMap(ctx context.Context, statementID string, param any, mapKey string, bounds *RowBounds, dest any) error {
	rows, err := db.query(ctx, statementID, param)
	if err != nil {
		return err
	}
	defer rows.Close()

	mapVal := reflect.ValueOf(dest).Elem()
	mapType := mapVal.Type()
	elemType := mapType.Elem()
	if mapVal.IsNil() {
		mapVal.Set(reflect.MakeMap(mapType))
	}

	skip, take := boundsOf(bounds)
	index := 0
	for rows.Next() {
		if index < skip {
			index++
			if err := skipRow(rows, elemType); err != nil {
				return err
			}
			continue
		}
		if take >= 0 && index-skip >= take {
			break
		}
		elem := newElem(elemType)
		if err := scanInto(rows, elem.Interface()); err != nil {
			return err
		}
		key, err := mapKeyOf(elem, mapKey)
		if err != nil {
			return err
		}
		mapVal.SetMapIndex(key, elem.Elem())
		index++
	}
	return rows.Err()
}

func (db *DB) Select(ctx context.Context, statementID string, param any, bounds *RowBounds, handler ResultHandler) error {
	rows, err := db.query(ctx, statementID, param)
	if err != nil {
		return err
	}
	defer rows.Close()

	skip, take := boundsOf(bounds)
	index := 0
	for rows.Next() {
		if index < skip {
			index++
			continue
		}
		if take >= 0 && index-skip >= take {
			break
		}
		var row map[string]any
		if err := scanRowAsMap(rows, &row); err != nil {
			return err
		}
		if err := handler.HandleResult(row); err != nil {
			return err
		}
		index++
	}
	return rows.Err()
}

func (db *DB) SelectCursor(ctx context.Context, statementID string, param any) (Cursor, error) {
	rows, err := db.query(ctx, statementID, param)
	if err != nil {
		return nil, err
	}
	return &rowCursor{rows: rows}, nil
}

func (db *DB) FlushStatements(ctx context.Context) error {
	return nil
}

func boundsOf(bounds *RowBounds) (skip, take int) {
	if bounds == nil {
		return 0, -1
	}
	return bounds.Offset, bounds.Limit
}

func skipRow(rows *sql.Rows, elemType reflect.Type) error {
	discard := newElem(elemType)
	return scanInto(rows, discard.Interface())
}

func scanRowAsMap(rows *sql.Rows, out *map[string]any) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return err
	}
	m := make(map[string]any, len(columns))
	for i, col := range columns {
		m[col] = values[i]
	}
	*out = m
	return nil
}
