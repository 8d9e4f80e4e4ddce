// Command migplan is a debug driver for the migration path planner:
// it loads a named YAML scenario, runs one of the two planner
// strategies, and prints the resulting path dump. It exists for local
// experimentation and soak-test replay, not as a product CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/yourusername/migplan/internal/fixtures"
	"github.com/yourusername/migplan/internal/planner"
)

var (
	scenarioName = flag.String("scenario", "simple_swap", "scenario name or path to a scenario YAML file")
	scenarioDir  = flag.String("scenario-dir", "internal/fixtures/testdata", "directory searched for <scenario>.yaml")
	strategyName = flag.String("strategy", "displacement", "planner strategy: displacement or dijkstra")
	showDebug    = flag.Bool("debug", false, "print the planner's accumulated debug log")
	version      = flag.Bool("version", false, "show version information")
)

var appVersion = "dev"

func resolveScenarioPath() string {
	if _, err := os.Stat(*scenarioName); err == nil {
		return *scenarioName
	}
	return filepath.Join(*scenarioDir, *scenarioName+".yaml")
}

func resolveStrategy() (planner.Strategy, error) {
	switch *strategyName {
	case "displacement":
		return planner.DisplacementPlanner{}, nil
	case "dijkstra":
		return planner.ShortestPathPlanner{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want displacement or dijkstra)", *strategyName)
	}
}

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("migplan version %s\n", appVersion)
		os.Exit(0)
	}

	if !*showDebug {
		log.SetOutput(io.Discard)
	}

	path := resolveScenarioPath()
	scenario, err := fixtures.Load(path)
	if err != nil {
		log.Fatalf("loading scenario %s: %v", path, err)
	}

	strategy, err := resolveStrategy()
	if err != nil {
		log.Fatalf("%v", err)
	}

	reg, initial, final, err := scenario.Build()
	if err != nil {
		log.Fatalf("building scenario %s: %v", scenario.Name, err)
	}

	p := planner.New(reg, initial, final, strategy)
	result, err := p.FindPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "planner error: %v\n", err)
		if *showDebug {
			fmt.Fprintln(os.Stderr, p.Debug())
		}
		os.Exit(1)
	}
	if result == nil {
		fmt.Println("no plan found")
		if *showDebug {
			fmt.Println(p.Debug())
		}
		os.Exit(1)
	}

	fmt.Print(result.Dump())
	fmt.Printf("cost: %d\n", result.Cost)
	fmt.Printf("elapsed: %s\n", p.ElapsedTime())
	if *showDebug {
		fmt.Println("--- debug log ---")
		fmt.Println(p.Debug())
	}
}
