package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/fbsql/fbsql"
)

func main() {
	var query string
	var verbose bool

	flag.StringVar(&query, "q", "", "SQL to run in non-interactive mode")
	flag.BoolVar(&verbose, "v", false, "log statement execution to stderr")
	flag.Parse()

	dsn := "mem://default"
	if flag.NArg() > 0 {
		dsn = flag.Arg(0)
	}

	cfg, err := fbsql.ParseDSN(dsn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	c, err := fbsql.Open(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer c.Close()

	if query != "" {
		fbsql.RunLine(os.Stdout, c, query)
		return
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			fbsql.RunLine(os.Stdout, c, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	fbsql.RunRepl(c)
}
