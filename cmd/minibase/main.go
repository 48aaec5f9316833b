// Command minibase is a line-oriented REPL over the storage engine,
// grounded on tuannm99-novasql's cmd/manual_test/sql/main.go (a sequence
// of named operations against a database handle) and cmd/server/main.go's
// flag-and-config-loading shape.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carina-TzuHsuan/CS564/internal/config"
	"github.com/Carina-TzuHsuan/CS564/internal/engine"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "minibase.yaml", "path to minibase YAML config")
	flag.Parse()

	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			slog.Error("minibase: load config failed", "path", cfgPath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	eng, err := engine.New(cfg.Storage.DataDir, cfg.Storage.PageSize, cfg.Bufferpool.NumFrames)
	if err != nil {
		slog.Error("minibase: init engine failed", "err", err)
		os.Exit(1)
	}
	defer eng.Close()

	r := newREPL(eng)
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("minibase> ")
	for scanner.Scan() {
		line := scanner.Text()
		if msg, err := r.Eval(line); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		} else if msg != "" {
			fmt.Println(msg)
		}
		fmt.Print("minibase> ")
	}
}
