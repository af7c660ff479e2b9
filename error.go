package fbsql

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedStatement is returned when transaction control SQL is
	// sent through the generic execute path.
	ErrUnsupportedStatement = errors.New("unsupported statement")
	// ErrParameterCount is returned when the number of bound values does not
	// match the number of statement parameters.
	ErrParameterCount = errors.New("parameter count mismatch")
	// ErrNullNotAllowed is returned when nil is bound to a parameter that
	// does not accept NULL.
	ErrNullNotAllowed       = errors.New("specified column is not permitted to be null")
	ErrCursorOpen           = errors.New("cursor is open")
	ErrCursorNotOpen        = errors.New("the cursor has not been opened")
	ErrCursorPastEnd        = errors.New("cursor is past end of data")
	ErrStatementClosed      = errors.New("statement is closed")
	ErrConnectionClosed     = errors.New("connection is closed")
	ErrNotPrepared          = errors.New("statement is not prepared")
	ErrBatchQuery           = errors.New("queries cannot be executed in batch")
	ErrTransactionActive    = errors.New("a transaction is already active")
	ErrNoTransaction        = errors.New("no transaction is active")
	// ErrMultipleReturningRows is returned when a statement with RETURNING
	// affects more than one row; only single-row RETURNING is delivered.
	ErrMultipleReturningRows = errors.New("RETURNING statement affected more than one row")
	// ErrUnsupportedType is returned in strict mode for columns whose type the
	// decoder does not know.
	ErrUnsupportedType = errors.New("unsupported column type")
)

// EngineError is a failure reported by the database engine. It is passed
// to the caller unchanged.
type EngineError struct {
	SQLCode int
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s (SQLCODE %d)", e.Message, e.SQLCode)
}

// Is reports a singleton violation as ErrMultipleReturningRows.
func (e *EngineError) Is(target error) bool {
	return target == ErrMultipleReturningRows && e.SQLCode == sqlcodeSingleton
}

// TypeConversionError is returned when a bound value cannot be represented
// in the parameter's declared type.
type TypeConversionError struct {
	Index int
	Value interface{}
	Type  SQLType
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("parameter %d: cannot convert %T to %s", e.Index+1, e.Value, e.Type)
}

// RangeError is returned when a bound value exceeds the declared width or
// precision of its parameter.
type RangeError struct {
	Index   int
	Message string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("parameter %d: %s", e.Index+1, e.Message)
}
