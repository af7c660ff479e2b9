package fbsql

import (
	"fmt"

	"github.com/pkg/errors"
)

// StatementKind is the engine's statement type code.
type StatementKind int

const (
	KindOther            StatementKind = 0
	KindSelect           StatementKind = 1
	KindInsert           StatementKind = 2
	KindUpdate           StatementKind = 3
	KindDelete           StatementKind = 4
	KindDDL              StatementKind = 5
	KindGetSegment       StatementKind = 6
	KindPutSegment       StatementKind = 7
	KindExecProcedure    StatementKind = 8
	KindStartTransaction StatementKind = 9
	KindCommit           StatementKind = 10
	KindRollback         StatementKind = 11
	KindSelectForUpdate  StatementKind = 12
	KindSetGenerator     StatementKind = 13
	KindSavepoint        StatementKind = 14
)

func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindDDL:
		return "ddl"
	case KindGetSegment:
		return "get segment"
	case KindPutSegment:
		return "put segment"
	case KindExecProcedure:
		return "execute procedure"
	case KindStartTransaction:
		return "start transaction"
	case KindCommit:
		return "commit"
	case KindRollback:
		return "rollback"
	case KindSelectForUpdate:
		return "select for update"
	case KindSetGenerator:
		return "set generator"
	case KindSavepoint:
		return "savepoint"
	}
	return fmt.Sprintf("other(%d)", int(k))
}

// DML reports whether the kind modifies rows.
func (k StatementKind) DML() bool {
	return k == KindInsert || k == KindUpdate || k == KindDelete
}

func (k StatementKind) transactionControl() bool {
	return k == KindStartTransaction || k == KindCommit || k == KindRollback
}

// Classification is the routing decision for a prepared statement.
type Classification struct {
	Kind      StatementKind
	HasOutput bool
}

// Returning reports whether the statement is DML with a RETURNING clause.
func (c Classification) Returning() bool {
	return c.Kind.DML() && c.HasOutput
}

// Query reports whether the statement produces a cursor.
func (c Classification) Query() bool {
	return c.HasOutput && !c.Kind.DML()
}

// Classify combines the engine's statement type with whether the output
// descriptor area is non-empty. Transaction control statements are
// rejected; the SQL text is never looked at.
func Classify(e Engine, h StatementHandle, out *DescriptorArea) (Classification, error) {
	kind, err := e.StatementType(h)
	if err != nil {
		return Classification{}, err
	}

	c := Classification{Kind: kind, HasOutput: out != nil && out.Count > 0}
	if err := c.check(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Classification) check() error {
	switch c.Kind {
	case KindStartTransaction:
		return errors.Wrap(ErrUnsupportedStatement, "use Connection.Begin to start a transaction")
	case KindCommit:
		return errors.Wrap(ErrUnsupportedStatement, "use Connection.Commit to commit a transaction")
	case KindRollback:
		return errors.Wrap(ErrUnsupportedStatement, "use Connection.Rollback to roll back a transaction")
	}
	return nil
}
