package fbsql

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// StatementState is the position of a Statement in its lifecycle.
type StatementState int

const (
	StateAllocated StatementState = iota
	StatePrepared
	StateDescribed
	StateBound
	StateExecuted
	StateFetching
	StateCounted
	StateClosed
)

func (s StatementState) String() string {
	switch s {
	case StateAllocated:
		return "allocated"
	case StatePrepared:
		return "prepared"
	case StateDescribed:
		return "described"
	case StateBound:
		return "bound"
	case StateExecuted:
		return "executed"
	case StateFetching:
		return "fetching"
	case StateCounted:
		return "counted"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// codec is the per-connection conversion setup a statement encodes and
// decodes with.
type codec struct {
	decode   DecodeOptions
	encode   EncodeOptions
	downcase bool
	logger   *slog.Logger
}

// Statement is one prepared statement of an engine with its input and
// output messages. A Statement is not safe for concurrent use.
type Statement struct {
	engine Engine
	handle StatementHandle
	codec  codec

	sql   string
	state StatementState
	class Classification

	in  *Message
	out *Message

	cursorOpen bool
	exhausted  bool
}

func newStatement(e Engine, c codec) (*Statement, error) {
	return newStatementSlots(e, c, initialSlots)
}

func newStatementSlots(e Engine, c codec, slots int) (*Statement, error) {
	h, err := e.AllocateStatement()
	if err != nil {
		return nil, err
	}

	if c.logger == nil {
		c.logger = discardLogger
	}

	return &Statement{
		engine: e,
		handle: h,
		codec:  c,
		state:  StateAllocated,
		in:     &Message{Area: newDescriptorArea(slots)},
		out:    &Message{Area: newDescriptorArea(slots)},
	}, nil
}

// Prepare sends sql to the engine, describes both sides and classifies the
// statement. A transaction control statement prepares but is reported with
// ErrUnsupportedStatement and cannot be executed.
func (s *Statement) Prepare(sql string) error {
	if s.state == StateClosed {
		return ErrStatementClosed
	}
	if s.cursorOpen {
		return errors.Wrap(ErrCursorOpen, "cannot prepare a statement with an open cursor")
	}

	s.state = StateAllocated
	s.class = Classification{}
	if err := s.engine.Prepare(s.handle, sql, s.out.Area); err != nil {
		return err
	}
	s.sql = sql
	s.state = StatePrepared

	if err := s.describe(); err != nil {
		return err
	}
	s.state = StateDescribed

	class, err := Classify(s.engine, s.handle, s.out.Area)
	s.class = class
	s.codec.logger.Debug("prepared statement",
		"kind", class.Kind.String(),
		"inputs", s.in.Area.Count,
		"outputs", s.out.Area.Count)
	return err
}

// describe fills both descriptor areas, reallocating any area the engine
// reports more columns for than it has slots, and recomputes the layouts.
func (s *Statement) describe() error {
	if !s.out.Area.Fits() {
		s.out.Area = newDescriptorArea(s.out.Area.Count)
		if err := s.engine.DescribeOutput(s.handle, s.out.Area); err != nil {
			return err
		}
	}

	if err := s.engine.DescribeInput(s.handle, s.in.Area); err != nil {
		return err
	}
	if !s.in.Area.Fits() {
		s.in.Area = newDescriptorArea(s.in.Area.Count)
		if err := s.engine.DescribeInput(s.handle, s.in.Area); err != nil {
			return err
		}
	}

	s.in.relayout()
	s.out.relayout()
	return nil
}

func (s *Statement) SQL() string { return s.sql }

func (s *Statement) State() StatementState { return s.state }

func (s *Statement) Classification() Classification { return s.class }

// InputColumns returns the descriptors of the statement parameters.
func (s *Statement) InputColumns() []ColumnDescriptor { return s.in.Columns() }

// OutputColumns returns the descriptors of the result or RETURNING columns.
func (s *Statement) OutputColumns() []ColumnDescriptor { return s.out.Columns() }

// Fields returns caller facing metadata of the output columns.
func (s *Statement) Fields() []Field {
	return fieldsFromDescriptors(s.out.Columns(), s.codec.downcase)
}

func (s *Statement) ready() error {
	switch {
	case s.state == StateClosed:
		return ErrStatementClosed
	case s.state < StateDescribed:
		return ErrNotPrepared
	case s.cursorOpen:
		return errors.Wrap(ErrCursorOpen, "close the previous result before executing again")
	}
	return s.class.check()
}

func (s *Statement) bind(params []interface{}) error {
	if err := Bind(s.in, params, s.codec.encode); err != nil {
		return err
	}
	s.state = StateBound
	return nil
}

// Execute binds params and runs the statement down the path its
// classification selects.
func (s *Statement) Execute(params ...interface{}) (*Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.bind(params); err != nil {
		return nil, err
	}
	return s.run()
}

// ExecuteBatch binds and runs the statement once per parameter group and
// returns one result per group. Results gathered before a failing group are
// returned along with the error.
func (s *Statement) ExecuteBatch(groups [][]interface{}) ([]*Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.class.Query() {
		return nil, ErrBatchQuery
	}

	results := make([]*Result, 0, len(groups))
	for i, params := range groups {
		if err := s.bind(params); err != nil {
			return results, errors.Wrapf(err, "group %d", i+1)
		}
		r, err := s.run()
		if err != nil {
			return results, errors.Wrapf(err, "group %d", i+1)
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *Statement) input() *Message {
	if s.in.Area.Count == 0 {
		return nil
	}
	return s.in
}

func (s *Statement) run() (*Result, error) {
	switch {
	case s.class.Returning():
		s.codec.logger.Debug("executing", "path", "returning", "kind", s.class.Kind.String())
		return s.executeReturning()
	case s.class.Query():
		s.codec.logger.Debug("executing", "path", "query", "kind", s.class.Kind.String())
		return s.openCursor()
	default:
		s.codec.logger.Debug("executing", "path", "count", "kind", s.class.Kind.String())
		return s.executeCount()
	}
}

func (s *Statement) executeCount() (*Result, error) {
	if err := s.engine.Execute(s.handle, s.input(), nil); err != nil {
		return nil, err
	}
	s.state = StateExecuted

	n, err := s.rowsAffected()
	if err != nil {
		return nil, err
	}
	s.state = StateCounted

	return &Result{Kind: ResultRowCount, RowCount: n}, nil
}

func (s *Statement) executeReturning() (*Result, error) {
	if err := s.engine.Execute(s.handle, s.input(), s.out); err != nil {
		return nil, err
	}
	s.state = StateExecuted
	s.cursorOpen = true

	found, err := s.engine.Fetch(s.handle, s.out)
	if err != nil {
		s.closeCursor()
		return nil, err
	}

	n, err := s.rowsAffected()
	if err != nil {
		s.closeCursor()
		return nil, err
	}
	// Engines normally refuse this themselves and undo the statement.
	if n > 1 {
		s.closeCursor()
		return nil, errors.Wrapf(ErrMultipleReturningRows, "%d rows affected", n)
	}

	values := []interface{}{}
	if found {
		values, err = DecodeRow(s.out, s.codec.decode)
		if err != nil {
			s.closeCursor()
			return nil, err
		}
	}

	if err := s.CloseCursor(); err != nil {
		return nil, err
	}
	s.state = StateCounted

	return &Result{
		Kind:      ResultReturning,
		Returning: &Returning{Values: values, RowsAffected: n},
	}, nil
}

func (s *Statement) openCursor() (*Result, error) {
	if err := s.engine.Execute(s.handle, s.input(), nil); err != nil {
		return nil, err
	}
	s.state = StateFetching
	s.cursorOpen = true
	s.exhausted = false

	return &Result{Kind: ResultRows, Rows: newRows(s)}, nil
}

func (s *Statement) rowsAffected() (int64, error) {
	counts, err := s.engine.RecordCounts(s.handle)
	if err != nil {
		return 0, err
	}
	return counts.Affected(s.class.Kind), nil
}

// fetch decodes the next row of the open cursor. It returns io.EOF once the
// engine reports end of data and ErrCursorPastEnd on any call after that.
func (s *Statement) fetch() ([]interface{}, error) {
	if !s.cursorOpen {
		return nil, ErrCursorNotOpen
	}
	if s.exhausted {
		return nil, ErrCursorPastEnd
	}

	found, err := s.engine.Fetch(s.handle, s.out)
	if err != nil {
		return nil, err
	}
	if !found {
		s.exhausted = true
		return nil, io.EOF
	}
	return DecodeRow(s.out, s.codec.decode)
}

// CloseCursor closes the statement's open cursor, if any.
func (s *Statement) CloseCursor() error {
	if !s.cursorOpen {
		return nil
	}
	s.cursorOpen = false
	s.exhausted = false
	if s.state == StateFetching {
		s.state = StateCounted
	}
	return s.engine.CloseCursor(s.handle)
}

// closeCursor is CloseCursor on an error path, where the first error wins.
func (s *Statement) closeCursor() {
	if err := s.CloseCursor(); err != nil {
		s.codec.logger.Debug("closing cursor after failure", "error", err)
	}
}

// Close closes any open cursor and frees the statement. Closing twice is a
// no-op.
func (s *Statement) Close() error {
	if s.state == StateClosed {
		return nil
	}

	err := s.CloseCursor()
	if ferr := s.engine.FreeStatement(s.handle); err == nil {
		err = ferr
	}
	s.state = StateClosed
	return err
}
