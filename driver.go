package fbsql

import (
	"database/sql"
	"database/sql/driver"
	"io"
	"time"

	"github.com/golang-sql/civil"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrLastInsertID is returned by LastInsertId. Generated keys are read
// with a RETURNING clause instead.
var ErrLastInsertID = errors.New("LastInsertId is not supported, use RETURNING")

// driverRows serves either an open cursor or the single row of a
// RETURNING clause.
type driverRows struct {
	rows    *Rows
	columns []string
	static  [][]interface{}
	index   int
}

func (r *driverRows) Columns() []string {
	return r.columns
}

func (r *driverRows) Close() error {
	r.index = len(r.static)
	if r.rows != nil {
		return r.rows.Close()
	}
	return nil
}

func (r *driverRows) Next(dest []driver.Value) error {
	var row []interface{}
	if r.rows != nil {
		var err error
		row, err = r.rows.Next()
		if err != nil {
			return err
		}
	} else {
		if r.index >= len(r.static) {
			return io.EOF
		}
		row = r.static[r.index]
		r.index++
	}

	for i, v := range row {
		dest[i] = driverValue(v)
	}
	return nil
}

// driverValue narrows a decoded value to the types database/sql scans from.
func driverValue(v interface{}) driver.Value {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String()
	case civil.Date:
		return x.In(time.UTC)
	}
	return v
}

type driverResult struct {
	rowsAffected int64
}

func (r driverResult) LastInsertId() (int64, error) {
	return 0, ErrLastInsertID
}

func (r driverResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

type Stmt struct {
	conn *Conn
	stmt *Statement
}

func (s *Stmt) Close() error {
	return s.stmt.Close()
}

func (s *Stmt) NumInput() int {
	return len(s.stmt.InputColumns())
}

// CheckNamedValue passes decimals, civil values and other binder inputs
// through unchanged.
func (s *Stmt) CheckNamedValue(nv *driver.NamedValue) error {
	if v, ok := nv.Value.(driver.Valuer); ok {
		if _, native := nv.Value.(decimal.Decimal); !native {
			val, err := v.Value()
			if err != nil {
				return err
			}
			nv.Value = val
		}
	}
	return nil
}

func (s *Stmt) execute(args []driver.Value) (*Result, error) {
	params := make([]interface{}, len(args))
	for i, a := range args {
		params[i] = a
	}

	return s.conn.conn.inTransaction(func() (*Result, error) {
		return s.stmt.Execute(params...)
	})
}

func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	r, err := s.execute(args)
	if err != nil {
		return nil, err
	}
	if r.Kind == ResultRows {
		return driverResult{}, r.Rows.Close()
	}
	return driverResult{rowsAffected: r.Affected()}, nil
}

func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	r, err := s.execute(args)
	if err != nil {
		return nil, err
	}

	rows := &driverRows{}
	for _, f := range s.stmt.Fields() {
		rows.columns = append(rows.columns, f.Name)
	}

	switch r.Kind {
	case ResultRows:
		rows.rows = r.Rows
	case ResultReturning:
		if len(r.Returning.Values) > 0 {
			rows.static = [][]interface{}{r.Returning.Values}
		}
	default:
		rows.columns = nil
	}
	return rows, nil
}

type Tx struct {
	conn *Connection
}

func (tx *Tx) Commit() error {
	return tx.conn.Commit()
}

func (tx *Tx) Rollback() error {
	return tx.conn.Rollback()
}

type Conn struct {
	conn *Connection
}

func (dc *Conn) Prepare(query string) (driver.Stmt, error) {
	s, err := dc.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &Stmt{conn: dc, stmt: s}, nil
}

func (dc *Conn) Begin() (driver.Tx, error) {
	if err := dc.conn.Begin(); err != nil {
		return nil, err
	}
	return &Tx{dc.conn}, nil
}

func (dc *Conn) Close() error {
	return dc.conn.Close()
}

// Connection exposes the native connection, for use with sql.Conn.Raw.
func (dc *Conn) Connection() *Connection {
	return dc.conn
}

type Driver struct{}

// Open attaches to the database named by dsn. See ParseDSN.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	c, err := Connect(dsn)
	if err != nil {
		return nil, err
	}
	return &Conn{c}, nil
}

func init() {
	sql.Register("fbsql", &Driver{})
}
