// Command ftlsim drives a flash translation layer against a simulated NAND
// device, replaying a synthetic read/write workload and optionally exposing
// a monitoring server over the run.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/flashftl/config"
	"github.com/sarchlab/flashftl/device"
	"github.com/sarchlab/flashftl/diagnostics"
	"github.com/sarchlab/flashftl/ftl"
	"github.com/sarchlab/flashftl/monitoring"
)

var (
	configPath  string
	numOps      int
	withMonitor bool
	monitorPort int
	openBrowser bool
	tracePath   string
)

var rootCmd = &cobra.Command{
	Use:   "ftlsim",
	Short: "ftlsim replays a synthetic workload through a flash translation layer.",
	Long: `ftlsim loads an SSD geometry, builds a flash translation layer over a ` +
		`simulated NAND device, and replays a synthetic read/write workload ` +
		`through it, optionally serving live wear-state and profiling data.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "ftl.env",
		"path to the geometry key/value file")
	rootCmd.Flags().IntVar(&numOps, "ops", 10000,
		"number of read/write operations to replay")
	rootCmd.Flags().BoolVar(&withMonitor, "monitor", false,
		"serve a monitoring HTTP server over the run")
	rootCmd.Flags().IntVar(&monitorPort, "monitor-port", 8080,
		"port for the monitoring HTTP server")
	rootCmd.Flags().BoolVar(&openBrowser, "open-browser", false,
		"open the monitoring server's root URL in a browser once the server starts (the server only serves /api/ endpoints)")
	rootCmd.Flags().StringVar(&tracePath, "trace-db", "",
		"optional path to a SQLite database to record diagnostics traces into")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	atexit.Exit(0)
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	geometry := cfg.Geometry()
	nand := device.NewNAND(geometry)

	logHook, err := diagnostics.NewLogHook(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logHook.Close()

	builder := ftl.MakeBuilder().
		WithGeometry(geometry).
		WithDevice(nand).
		WithHook(logHook)

	if tracePath != "" {
		recorder, err := diagnostics.NewTraceRecorder(tracePath)
		if err != nil {
			return err
		}
		defer recorder.Close()
		builder = builder.WithHook(recorder)
	}

	comp := builder.Build()

	var mon *monitoring.Monitor
	if withMonitor {
		mon = monitoring.NewMonitor().WithPortNumber(monitorPort)
		mon.RegisterFTL(comp)
		mon.RegisterDevice(nand)
		mon.StartServer()

		if openBrowser {
			if err := browser.OpenURL(fmt.Sprintf("http://localhost:%d", monitorPort)); err != nil {
				fmt.Fprintf(os.Stderr, "could not open browser: %v\n", err)
			}
		}
	}

	replayWorkload(comp, geometry.Usable(), mon)

	return nil
}

// replayWorkload issues numOps random operations against comp: each logical
// address is written once before it is ever read, so reads always land on
// already-written pages.
func replayWorkload(comp *ftl.Comp, usable uint64, mon *monitoring.Monitor) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	var bar *monitoring.ProgressBar
	if mon != nil {
		bar = mon.CreateProgressBar("workload", uint64(numOps))
		defer mon.CompleteProgressBar(bar)
	}

	written := make(map[uint64]bool)
	var failures int

	for i := 0; i < numOps; i++ {
		lba := rng.Uint64() % usable

		opType := device.Write
		if written[lba] && rng.Intn(2) == 0 {
			opType = device.Read
		}

		ev := device.NewEvent(opType, lba, float64(i))
		if _, err := comp.Translate(ctx, ev); err != nil {
			failures++
		} else if opType == device.Write {
			written[lba] = true
		}

		if bar != nil {
			bar.IncrementFinished(1)
		}
	}

	fmt.Printf("replayed %d operations, %d failed\n", numOps, failures)
}
