package main

import (
	"database/sql"
	"fmt"

	_ "github.com/fbsql/fbsql"
)

func main() {
	db, err := sql.Open("fbsql", "mem://sqlexample")
	if err != nil {
		panic(err)
	}
	defer db.Close()

	_, err = db.Exec("CREATE TABLE users (id INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, name VARCHAR(40), age INT);")
	if err != nil {
		panic(err)
	}

	var id int64
	err = db.QueryRow("INSERT INTO users (name, age) VALUES (?, ?) RETURNING id;", "Terry", 45).Scan(&id)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Inserted Terry with id %d\n", id)

	res, err := db.Exec("INSERT INTO users (name, age) VALUES (?, ?);", "Anette", 57)
	if err != nil {
		panic(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		panic(err)
	}
	fmt.Printf("Inserted %d row(s)\n", n)

	rows, err := db.Query("SELECT name, age FROM users WHERE age > ?;", 40)
	if err != nil {
		panic(err)
	}

	var name string
	var age uint64
	defer rows.Close()
	for rows.Next() {
		err := rows.Scan(&name, &age)
		if err != nil {
			panic(err)
		}

		fmt.Printf("Name: %s, Age: %d\n", name, age)
	}

	if err = rows.Err(); err != nil {
		panic(err)
	}
}
