package fbsql

import (
	"io"

	"github.com/pkg/errors"
)

// Connection runs statements against one engine attachment. Statements
// executed outside an explicit transaction run in a transaction of their
// own that commits on success and rolls back on failure.
type Connection struct {
	engine Engine
	config *Config
	codec  codec
	closed bool
}

// Connect parses dsn and attaches to the in-memory database it names.
func Connect(dsn string) (*Connection, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return Open(cfg)
}

// Open attaches to the in-memory database named by cfg.Database.
func Open(cfg *Config) (*Connection, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cs, err := LookupCharset(cfg.Charset)
	if err != nil {
		return nil, err
	}

	e := AttachMemory(cfg.Database)
	e.SetCharset(cs)
	return NewConnection(e, cfg)
}

// NewConnection wraps an engine attachment.
func NewConnection(e Engine, cfg *Config) (*Connection, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c, err := cfg.codec()
	if err != nil {
		return nil, err
	}
	return &Connection{engine: e, config: cfg, codec: c}, nil
}

// Config returns the settings the connection was opened with.
func (c *Connection) Config() *Config {
	return c.config
}

// Prepare allocates and prepares a statement. The caller must Close it.
func (c *Connection) Prepare(sql string) (*Statement, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}

	s, err := newStatement(c.engine, c.codec)
	if err != nil {
		return nil, err
	}
	if err := s.Prepare(sql); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Execute prepares sql, binds params and executes it once. A Rows result
// keeps its statement, and any automatic transaction, open until the Rows
// are closed.
func (c *Connection) Execute(sql string, params ...interface{}) (*Result, error) {
	return c.inTransaction(func() (*Result, error) {
		s, err := c.Prepare(sql)
		if err != nil {
			return nil, err
		}

		r, err := s.Execute(params...)
		if err != nil {
			s.Close()
			return nil, err
		}
		if r.Kind == ResultRows {
			r.Rows.onClose = s.Close
			return r, nil
		}
		return r, s.Close()
	})
}

// ExecuteBatch prepares sql once and executes it for every parameter group.
func (c *Connection) ExecuteBatch(sql string, groups [][]interface{}) ([]*Result, error) {
	var results []*Result
	_, err := c.inTransaction(func() (*Result, error) {
		s, err := c.Prepare(sql)
		if err != nil {
			return nil, err
		}
		defer s.Close()

		results, err = s.ExecuteBatch(groups)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Query executes sql and reads every row it produces. The values of a
// RETURNING clause come back as a single row; other statements produce no
// rows.
func (c *Connection) Query(sql string, params ...interface{}) ([][]interface{}, error) {
	r, err := c.Execute(sql, params...)
	if err != nil {
		return nil, err
	}

	switch r.Kind {
	case ResultRows:
		rows, err := r.Rows.All()
		if cerr := r.Rows.Close(); err == nil {
			err = cerr
		}
		return rows, err
	case ResultReturning:
		if len(r.Returning.Values) == 0 {
			return nil, nil
		}
		return [][]interface{}{r.Returning.Values}, nil
	}
	return nil, nil
}

// inTransaction runs fn inside the current transaction, or inside a new one
// that is committed when fn succeeds and rolled back when it fails. A Rows
// result defers the commit to Rows.Close.
func (c *Connection) inTransaction(fn func() (*Result, error)) (*Result, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if c.engine.InTransaction() {
		return fn()
	}

	if err := c.engine.Begin(); err != nil {
		return nil, err
	}

	r, err := fn()
	if err != nil {
		if rerr := c.engine.Rollback(); rerr != nil {
			c.codec.logger.Warn("rolling back automatic transaction", "error", rerr)
		}
		return nil, err
	}

	if r != nil && r.Kind == ResultRows {
		closeStatement := r.Rows.onClose
		r.Rows.onClose = func() error {
			var err error
			if closeStatement != nil {
				err = closeStatement()
			}
			if cerr := c.engine.Commit(); err == nil {
				err = cerr
			}
			return err
		}
		return r, nil
	}

	return r, c.engine.Commit()
}

// Begin starts an explicit transaction.
func (c *Connection) Begin() error {
	if c.engine.InTransaction() {
		return ErrTransactionActive
	}
	return c.engine.Begin()
}

// Commit commits the explicit transaction.
func (c *Connection) Commit() error {
	if !c.engine.InTransaction() {
		return ErrNoTransaction
	}
	return c.engine.Commit()
}

// Rollback rolls back the explicit transaction.
func (c *Connection) Rollback() error {
	if !c.engine.InTransaction() {
		return ErrNoTransaction
	}
	return c.engine.Rollback()
}

// InTransaction reports whether a transaction is active.
func (c *Connection) InTransaction() bool {
	return c.engine.InTransaction()
}

// Transaction runs fn in a new transaction, committing when fn returns nil
// and rolling back otherwise.
func (c *Connection) Transaction(fn func() error) error {
	if err := c.Begin(); err != nil {
		return err
	}

	if err := fn(); err != nil {
		if rerr := c.engine.Rollback(); rerr != nil {
			return errors.Wrapf(err, "rollback failed: %s", rerr)
		}
		return err
	}
	return c.engine.Commit()
}

// Tables lists the tables of the attached database when the engine can.
func (c *Connection) Tables() []TableMetadata {
	if cat, ok := c.engine.(Catalog); ok {
		return cat.Tables()
	}
	return nil
}

// Close rolls back any open transaction and detaches from the engine.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	if c.engine.InTransaction() {
		err = c.engine.Rollback()
	}
	if cl, ok := c.engine.(io.Closer); ok {
		if cerr := cl.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
