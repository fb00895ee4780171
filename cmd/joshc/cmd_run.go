package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/internal/compiler"
	"github.com/schmidtdse/joshsim/internal/lang"
	"github.com/schmidtdse/joshsim/internal/obslog"
	"github.com/schmidtdse/joshsim/internal/runconfig"
	"github.com/schmidtdse/joshsim/internal/runtime"
	"github.com/schmidtdse/joshsim/internal/wire"
)

var (
	runSimName    string
	runPatchName  string
	runAgentName  string
	runAgentCount int
	runGridWidth  int
	runGridHeight int
	runCellSize   float64
	runStepsLow   int
	runStepsHigh  int
	runThreads    int
	runSeed       int64
	runReplicate  int
	runConfigPath string
	runAttrs      string
	runServeAddr  string
)

var runCmd = &cobra.Command{
	Use:   "run <script.josh>",
	Short: "Run a script and stream results in the wire format",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSimName, "sim", "Default", "Simulation entity name to run")
	runCmd.Flags().StringVar(&runPatchName, "patch", "Default", "Patch entity name to grid over")
	runCmd.Flags().StringVar(&runAgentName, "agent", "", "Agent entity name to seed per patch (optional)")
	runCmd.Flags().IntVar(&runAgentCount, "agents-per-patch", 0, "Agent instances seeded per patch")
	runCmd.Flags().IntVar(&runGridWidth, "grid-width", 1, "Patch grid width")
	runCmd.Flags().IntVar(&runGridHeight, "grid-height", 1, "Patch grid height")
	runCmd.Flags().Float64Var(&runCellSize, "cell-size", 1, "Patch cell edge length in meters")
	runCmd.Flags().IntVar(&runStepsLow, "steps-low", 0, "First step index (inclusive); dispatches init")
	runCmd.Flags().IntVar(&runStepsHigh, "steps-high", 0, "Last step index (inclusive)")
	runCmd.Flags().IntVar(&runThreads, "threads", 1, "Patch-sharded worker count; 1 runs single-threaded")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Base seed for the deterministic RNG")
	runCmd.Flags().IntVar(&runReplicate, "replicate", 0, "Replicate index for wire-format framing")
	runCmd.Flags().StringVar(&runConfigPath, "jshc", "", "Path to a .jshc configuration file")
	runCmd.Flags().StringVar(&runAttrs, "attrs", "", "Comma-separated patch attribute names to report each step")
	runCmd.Flags().StringVar(&runServeAddr, "serve", "", "Also broadcast output over a websocket at this address (e.g. :8080)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	prog, err := lang.Parse(string(src))
	if err != nil {
		return reportDiagnostic(args[0], err)
	}
	compiled, err := compiler.Compile(prog)
	if err != nil {
		return reportDiagnostic(args[0], err)
	}

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	grid := runtime.GridSpec{
		Width:  runGridWidth,
		Height: runGridHeight,
		MakeGeometry: func(row, col int) runtime.Geometry {
			return runtime.NewGridCellGeometry(row, col, runCellSize)
		},
	}

	sim, err := runtime.NewSimulation(ctx, compiled, runSimName, runPatchName, grid, cfg, nil, runSeed)
	if err != nil {
		return err
	}
	if runAgentName != "" && runAgentCount > 0 {
		if err := sim.SeedAgents(runAgentName, runAgentCount); err != nil {
			return err
		}
	}

	var server *wire.Server
	if runServeAddr != "" {
		server = wire.NewServer(runServeAddr)
		go func() {
			if err := server.Serve(); err != nil {
				obslog.Get(obslog.CategoryExporter).Errorw("websocket server stopped", "error", err)
			}
		}()
	}

	attrs := splitAttrs(runAttrs)
	emit := func(line string) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
		if server != nil {
			server.Broadcast(line)
		}
	}

	onStep := func(step int) {
		emit(wire.EncodeData(runReplicate, formatStepPayload(sim, step, attrs)))
		emit(wire.EncodeProgress(step))
	}

	if err := sim.Run(ctx, runStepsLow, runStepsHigh, runThreads, onStep); err != nil {
		emit(wire.EncodeError(err.Error()))
		return err
	}
	emit(wire.EncodeEnd(runReplicate))
	return nil
}

func loadRunConfig() (*runconfig.JshcConfig, error) {
	if runConfigPath == "" {
		return &runconfig.JshcConfig{}, nil
	}
	f, err := os.Open(runConfigPath)
	if err != nil {
		return nil, fmt.Errorf("open jshc config: %w", err)
	}
	defer f.Close()
	return runconfig.ParseJshc(f)
}

func splitAttrs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// formatStepPayload renders the requested attributes off patch 0's
// snapshot as `name=value` pairs, the way the wire format's data rows
// carry one observation line per step.
func formatStepPayload(sim *runtime.Simulation, step int, attrs []string) string {
	if len(attrs) == 0 || len(sim.Patches) == 0 {
		return fmt.Sprintf("step=%d", step)
	}
	snap := sim.Patches[0].Snapshot()
	var sb strings.Builder
	fmt.Fprintf(&sb, "step=%d", step)
	for _, name := range attrs {
		if v, ok := snap.Attribute(name); ok {
			fmt.Fprintf(&sb, " %s=%s", name, v.String())
		}
	}
	return sb.String()
}
