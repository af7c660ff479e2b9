package fbsql

import (
	"io"
)

// Rows is the open cursor of a query. Rows are decoded one at a time as
// Next is called.
type Rows struct {
	stmt    *Statement
	fields  []Field
	columns []string
	closed  bool

	// onClose runs once after the cursor is closed.
	onClose func() error
}

func newRows(s *Statement) *Rows {
	fields := s.Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	return &Rows{
		stmt:    s,
		fields:  fields,
		columns: columns,
	}
}

// Columns returns the result column names.
func (r *Rows) Columns() []string {
	return r.columns
}

// Fields returns the result column metadata.
func (r *Rows) Fields() []Field {
	return r.fields
}

// Next returns the next row. It returns io.EOF when there are no more rows
// and ErrCursorPastEnd when called again after that.
func (r *Rows) Next() ([]interface{}, error) {
	if r.closed {
		return nil, ErrCursorNotOpen
	}
	return r.stmt.fetch()
}

// All reads the remaining rows.
func (r *Rows) All() ([][]interface{}, error) {
	var rows [][]interface{}
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

// Close closes the cursor. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.stmt.CloseCursor()
	if r.onClose != nil {
		if cerr := r.onClose(); err == nil {
			err = cerr
		}
	}
	return err
}
