package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"whitesymex/engine"
)

// defaultBitlength matches the Engine API's documented default for
// CreateEntryState's symbolic-byte width.
const defaultBitlength = 24

var (
	find      = flag.String("find", "", "string to find in a state's stdout")
	avoid     = flag.String("avoid", "", "string to avoid in a state's stdout")
	strategy  = flag.String("strategy", "bfs", "path exploration strategy: bfs, dfs, random")
	loopLimit = flag.Int("loop-limit", 0, "maximum iterations for symbolic loops (0: unlimited)")
	verbose   = flag.Bool("verbose", false, "trace stash transitions and loop-budget drops to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] PROGRAM_FILE\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, path); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	instructions, err := engine.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	strat, err := engine.StrategyByName(*strategy)
	if err != nil {
		return fmt.Errorf("--strategy %s: %w", *strategy, err)
	}

	state := engine.CreateEntryState(instructions, nil, defaultBitlength)
	pathGroup := engine.NewPathGroup(state)

	opts := engine.ExploreOptions{
		FindBytes:  nonEmptyBytes(*find),
		AvoidBytes: nonEmptyBytes(*avoid),
		Strategy:   strat,
		LoopLimit:  *loopLimit,
	}
	if *verbose {
		opts.Trace = os.Stderr
	}

	if err := pathGroup.Explore(ctx, opts); err != nil {
		return fmt.Errorf("explore: %w", err)
	}

	return report(pathGroup)
}

func nonEmptyBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}

func report(pathGroup *engine.PathGroup) error {
	if *find != "" && len(pathGroup.Found()) > 0 {
		return printSolution(pathGroup.Found()[0])
	}
	if len(pathGroup.Deadended()) > 0 {
		return printSolution(pathGroup.Deadended()[0])
	}
	color.Yellow("No solution found.")
	return nil
}

func printSolution(state *engine.State) error {
	solution, err := state.Concretize(nil)
	if err != nil {
		return fmt.Errorf("concretize: %w", err)
	}
	color.Green("%s", solution)
	return nil
}
