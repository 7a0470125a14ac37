// Command selfplay pits the move engine against itself at every pairing of
// difficulties and prints the results.
package main

import (
	"context"
	"ctchen222/quantum-tictactoe/internal/bot"
	"ctchen222/quantum-tictactoe/internal/logger"
	"ctchen222/quantum-tictactoe/internal/match"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"text/tabwriter"
	"time"
)

func main() {
	games := flag.Int("games", 100, "games per pairing")
	seed := flag.Uint64("seed", 0, "engine seed, 0 for random")
	workers := flag.Int("workers", runtime.NumCPU(), "games played in parallel")
	x := flag.String("x", "", "difficulty for X; empty plays every pairing")
	o := flag.String("o", "", "difficulty for O; empty plays every pairing")
	asJSON := flag.Bool("json", false, "print results as JSON")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger.Init(level, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pairings := match.AllPairings()
	if *x != "" || *o != "" {
		pairings = []match.Pairing{{X: bot.ParseDifficulty(*x), O: bot.ParseDifficulty(*o)}}
	}

	start := time.Now()
	records, err := match.NewTournament(bot.NewEngine(*seed), *workers).Run(ctx, pairings, *games)
	if err != nil {
		slog.Error("Tournament failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Tournament finished", "pairings", len(pairings), "games", *games, "duration", time.Since(start))

	if *asJSON {
		err = json.NewEncoder(os.Stdout).Encode(records)
	} else {
		err = printTable(os.Stdout, records)
	}
	if err != nil {
		slog.Error("Failed to print results", "error", err)
		os.Exit(1)
	}
}

func printTable(w io.Writer, records []match.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "X\tO\tX wins\tO wins\tdraws\t")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t\n", r.X, r.O, r.XWins, r.OWins, r.Draws)
	}
	return tw.Flush()
}
