package session

import "context"

// RowBounds is a caller-supplied offset/limit paging descriptor recognized
// by position in a mapper method's argument list.
type RowBounds struct {
	Offset int
	Limit  int
}

// ResultHandler receives one result row at a time for SELECT methods that
// return void and declare a result-handler parameter.
type ResultHandler interface {
	HandleResult(row any) error
}

// Cursor is a lazily-fetched sequence of result rows.
type Cursor interface {
	Next() bool
	Scan(dest any) error
	Close() error
	Err() error
}

// Session is the facade the mapper-method executor consumes. It is
// implemented by *DB (the database/sql-backed facade in this package) but
// declared as an interface so the executor and proxy packages depend on
// this contract rather than on *DB.
type Session interface {
	Insert(ctx context.Context, statementID string, param any) (int64, error)
	Update(ctx context.Context, statementID string, param any) (int64, error)
	Delete(ctx context.Context, statementID string, param any) (int64, error)
	SelectOne(ctx context.Context, statementID string, param any, dest any) error
	SelectList(ctx context.Context, statementID string, param any, bounds *RowBounds, dest any) error
	SelectMap(ctx context.Context, statementID string, param any, mapKey string, bounds *RowBounds, dest any) error
	SelectCursor(ctx context.Context, statementID string, param any) (Cursor, error)
	Select(ctx context.Context, statementID string, param any, bounds *RowBounds, handler ResultHandler) error
	FlushStatements(ctx context.Context) error
}
