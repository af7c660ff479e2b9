package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/fbsql/fbsql"
)

var inserts = 1000
var lastId = 0
var firstId = 0

func doInsert(c *fbsql.Connection) {
	source := rand.NewSource(time.Now().UnixNano())
	r := rand.New(source)

	groups := make([][]interface{}, 0, inserts)
	for i := 0; i < inserts; i++ {
		lastId = r.Intn(inserts * 10)
		if i == 0 {
			firstId = lastId
		}
		groups = append(groups, []interface{}{lastId, i})
	}

	_, err := c.ExecuteBatch("INSERT INTO users VALUES (?, ?)", groups)
	if err != nil {
		panic(err)
	}
}

func expectInc(c *fbsql.Connection, id, inc int) {
	rows, err := c.Query("SELECT id, inc FROM users WHERE id = ?", id)
	if err != nil {
		panic(err)
	}

	found := false
	for _, row := range rows {
		if row[1].(int64) == int64(inc) {
			found = true
		}
	}
	if !found {
		panic(fmt.Sprintf("Bad rows for id %d, got: %v", id, rows))
	}
}

func doSelect(c *fbsql.Connection) {
	expectInc(c, lastId, inserts-1)
	expectInc(c, firstId, 0)
}

func perf(name string, c *fbsql.Connection, cb func(c *fbsql.Connection)) {
	start := time.Now()
	fmt.Println("Starting", name)
	cb(c)
	fmt.Printf("Finished %s: %f seconds\n", name, time.Since(start).Seconds())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Printf("Alloc = %d MiB\n\n", m.Alloc/1024/1024)
}

func main() {
	c, err := fbsql.Connect("mem://batchtest")
	if err != nil {
		panic(err)
	}
	defer c.Close()

	index := false
	for i, arg := range os.Args {
		if arg == "--with-index" {
			index = true
		}

		if arg == "--inserts" && i+1 < len(os.Args) {
			inserts, _ = strconv.Atoi(os.Args[i+1])
		}
	}

	if _, err := c.Execute("CREATE TABLE users (id INT, inc INT)"); err != nil {
		panic(err)
	}

	indexingString := " with indexing enabled"
	if !index {
		indexingString = ""
	}
	fmt.Printf("Inserting %d rows%s\n", inserts, indexingString)

	perf("INSERT", c, doInsert)

	if index {
		perf("CREATE INDEX", c, func(c *fbsql.Connection) {
			if _, err := c.Execute("CREATE INDEX id_idx ON users (id)"); err != nil {
				panic(err)
			}
		})
	}

	perf("SELECT", c, doSelect)
}
