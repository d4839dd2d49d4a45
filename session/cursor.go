package session

import "database/sql"

// rowCursor adapts *sql.Rows to the Cursor interface.
type rowCursor struct {
	rows *sql.Rows
}

func (c *rowCursor) Next() bool { return c.rows.Next() }

func (c *rowCursor) Scan(dest any) error { return scanInto(c.rows, dest) }

func (c *rowCursor) Close() error { return c.rows.Close() }

func (c *rowCursor) Err() error { return c.rows.Err() }
