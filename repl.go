package fbsql

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"
)

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format("2006-01-02 15:04:05.0000")
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	}
	return fmt.Sprint(v)
}

func printRows(out io.Writer, columns []string, rows [][]interface{}) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "(no results)")
		return
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		table.Append(cells)
	}
	table.Render()

	if len(rows) == 1 {
		fmt.Fprintln(out, "(1 result)")
	} else {
		fmt.Fprintf(out, "(%d results)\n", len(rows))
	}
}

func printResult(out io.Writer, r *Result) error {
	switch r.Kind {
	case ResultRows:
		defer r.Rows.Close()
		rows, err := r.Rows.All()
		if err != nil {
			return err
		}
		printRows(out, r.Rows.Columns(), rows)

	case ResultReturning:
		fmt.Fprintf(out, "ok (%d affected)\n", r.Returning.RowsAffected)
		if len(r.Returning.Values) > 0 {
			printRows(out, nil, [][]interface{}{r.Returning.Values})
		}

	default:
		fmt.Fprintf(out, "ok (%d affected)\n", r.RowCount)
	}
	return nil
}

func describeTable(out io.Writer, c *Connection, name string) {
	// psql behavior is to display all if no name is specified.
	if name == "" {
		describeTables(out, c)
		return
	}

	var tm *TableMetadata
	for _, t := range c.Tables() {
		if t.Name == name || t.Name == strings.ToUpper(name) {
			t := t
			tm = &t
		}
	}

	if tm == nil {
		fmt.Fprintf(out, "Did not find any relation named \"%s\".\n", name)
		return
	}

	fmt.Fprintf(out, "Table \"%s\"\n", tm.Name)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Column", "Type", "Nullable", "Default"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, col := range tm.Columns {
		nullable := ""
		if col.NotNull {
			nullable = "not null"
		}
		def := col.Default
		if col.Identity {
			def = "generated by default as identity"
		}
		table.Append([]string{col.Name, col.Type, nullable, def})
	}
	table.Render()

	if len(tm.Indexes) > 0 {
		fmt.Fprintln(out, "Indexes:")
	}
	for _, index := range tm.Indexes {
		kind := ""
		if index.PrimaryKey {
			kind = " PRIMARY KEY,"
		} else if index.Unique {
			kind = " UNIQUE,"
		}
		fmt.Fprintf(out, "\t\"%s\"%s llrb (%s)\n", index.Name, kind, index.Column)
	}

	fmt.Fprintln(out)
}

func describeTables(out io.Writer, c *Connection) {
	tables := c.Tables()
	if len(tables) == 0 {
		fmt.Fprintln(out, "Did not find any relations.")
		return
	}

	fmt.Fprintln(out, "List of relations")

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Name", "Type"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, t := range tables {
		table.Append([]string{t.Name, "table"})
	}
	table.Render()

	fmt.Fprintln(out)
}

// runStatement executes one parsed statement. Transaction control goes
// through the connection rather than the engine.
func runStatement(out io.Writer, c *Connection, stmt *ParsedStatement, sql string) error {
	switch stmt.Kind {
	case CommitKind:
		return c.Commit()
	case RollbackKind:
		return c.Rollback()
	case SetTransactionKind:
		return c.Begin()
	}

	r, err := c.Execute(sql)
	if err != nil {
		return err
	}
	return printResult(out, r)
}

// RunLine runs one line of REPL input: a meta command or one or more
// statements separated by semicolons.
func RunLine(out io.Writer, c *Connection, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	if trimmed == "\\dt" {
		describeTables(out, c)
		return
	}

	if strings.HasPrefix(trimmed, "\\d") {
		describeTable(out, c, strings.TrimSpace(trimmed[len("\\d"):]))
		return
	}

	parseOnly := false
	if strings.HasPrefix(trimmed, "\\p") {
		trimmed = strings.TrimSpace(trimmed[len("\\p"):])
		parseOnly = true
	}

	ast, err := Parser{HelpMessagesDisabled: true}.Parse(trimmed)
	if err != nil {
		fmt.Fprintln(out, "Error while parsing:", err)
		return
	}

	for _, stmt := range ast.Statements {
		if parseOnly {
			fmt.Fprintln(out, stmt.GenerateCode())
			continue
		}

		sql := trimmed
		if len(ast.Statements) > 1 {
			sql = stmt.GenerateCode()
		}
		if err := runStatement(out, c, stmt, sql); err != nil {
			fmt.Fprintln(out, "Error:", err)
			return
		}
	}
}

// RunRepl reads statements from the terminal until quit, exit, \q or EOF.
func RunRepl(c *Connection) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "# ",
		HistoryFile:     os.TempDir() + "/fbsql_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()

	fmt.Println("Welcome to fbsql.")
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("Error while reading line:", err)
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "quit" || trimmed == "exit" || trimmed == "\\q" {
			break
		}

		RunLine(os.Stdout, c, line)
	}
}
