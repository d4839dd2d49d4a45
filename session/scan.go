package session

import (
	"database/sql"
	"reflect"

	"github.com/canonical/sqlmapper/internal/errs"
	"github.com/canonical/sqlmapper/internal/typeinfo"
)

// scanInto scans one row of rows into dest, which must be a pointer. A
// struct destination is scanned column-by-column via its "db" tags,
// discarding any returned column with no matching field; any other
// destination is scanned directly (a single-column result into a scalar).
func scanInto(rows *sql.Rows, dest any) error {
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Ptr || destVal.IsNil() {
		return errs.Wrap(errs.BuildError, "scan destination must be a non-nil pointer")
	}
	elem := destVal.Elem()
	if elem.Kind() != reflect.Struct {
		return rows.Scan(dest)
	}

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	info, err := typeinfo.GetTypeInfo(dest)
	if err != nil {
		return err
	}

	targets := make([]any, len(columns))
	for i, col := range columns {
		field, ok := info.TagToField[col]
		if !ok {
			var discard any
			targets[i] = &discard
			continue
		}
		targets[i] = elem.Field(field.Index).Addr().Interface()
	}
	return rows.Scan(targets...)
}

// newElem allocates a new addressable value of the element type a slice or
// map destination holds, returning it as a pointer suitable for scanInto.
func newElem(elemType reflect.Type) reflect.Value {
	return reflect.New(elemType)
}

// mapKeyOf extracts the field tagged mapKey from a scanned element, for use
// as a SelectMap destination key.
func mapKeyOf(elem reflect.Value, mapKey string) (reflect.Value, error) {
	info, err := typeinfo.GetTypeInfo(elem.Interface())
	if err != nil {
		return reflect.Value{}, err
	}
	field, ok := info.TagToField[mapKey]
	if !ok {
		return reflect.Value{}, errs.Wrap(errs.BuildError, "mapKey %q not found on %s", mapKey, elem.Type())
	}
	return reflect.Indirect(elem).Field(field.Index), nil
}
