package main

import (
	"fmt"
	"io"

	"github.com/fbsql/fbsql"
)

func main() {
	c, err := fbsql.Connect("mem://libraryexample")
	if err != nil {
		panic(err)
	}
	defer c.Close()

	_, err = c.Execute("CREATE TABLE users (id INT, name VARCHAR(20), balance NUMERIC(9, 2))")
	if err != nil {
		panic(err)
	}

	r, err := c.Execute("INSERT INTO users VALUES (?, ?, ?) RETURNING id, name", 1, "Admin", "1234.56")
	if err != nil {
		panic(err)
	}
	fmt.Printf("Returned %v (%d affected)\n", r.Returning.Values, r.Returning.RowsAffected)

	r, err = c.Execute("SELECT id, name, balance FROM users")
	if err != nil {
		panic(err)
	}
	defer r.Rows.Close()

	for _, f := range r.Rows.Fields() {
		fmt.Printf("| %s %s ", f.Name, f.SQLType)
	}
	fmt.Println("|")

	for i := 0; i < 40; i++ {
		fmt.Printf("=")
	}
	fmt.Println()

	for {
		row, err := r.Rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}

		fmt.Printf("|")
		for _, v := range row {
			fmt.Printf(" %v | ", v)
		}
		fmt.Println()
	}
}
