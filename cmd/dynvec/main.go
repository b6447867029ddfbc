package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/davecgh/go-spew/spew"
	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/dynvec/internal/config"
	"github.com/san-kum/dynvec/internal/export"
	"github.com/san-kum/dynvec/internal/logging"
	"github.com/san-kum/dynvec/internal/metrics"
	"github.com/san-kum/dynvec/internal/scenario"
	"github.com/san-kum/dynvec/internal/storage"
	"github.com/san-kum/dynvec/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	// Growth policy overrides
	policyName string
	factor     float64
	minStep    int
	// run
	scriptFile string
	dump       bool
	noSave     bool
	// bench
	benchCount  int
	showMetrics bool
	// faults
	faultSize int
	workers   int
	panicMode bool
	// live and export-svg
	themeName string
	svgOut    string
	svgWidth  int
	svgHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dynvec",
		Short:         "dynamic array exception-safety lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [script]",
		Short: "run a built-in or YAML script against a tracked vector",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScript,
	}
	addPolicyFlags(runCmd)
	runCmd.Flags().StringVarP(&scriptFile, "file", "f", "", "script file (yaml)")
	runCmd.Flags().BoolVar(&dump, "dump", false, "dump the full result")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	scriptsCmd := &cobra.Command{
		Use:   "scripts",
		Short: "list built-in scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := scenario.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tOPS\tDESCRIPTION")
			for _, name := range reg.List() {
				s, _ := reg.Get(name)
				fmt.Fprintf(w, "%s\t%d\t%s\n", s.Name, len(s.Ops), s.Description)
			}
			return w.Flush()
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list growth policy presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFACTOR\tMIN STEP")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.2f\t%d\n", p.Name, p.Factor, p.MinStep)
			}
			return w.Flush()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot length and capacity over a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			return storage.New(cfg.DataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored run's trace as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a stored run's trace as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 300, "image height")

	benchCmd := &cobra.Command{
		Use:   "bench [policy...]",
		Short: "compare growth policies on repeated appends",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVarP(&benchCount, "count", "n", 0, "appends per policy (default from config)")
	benchCmd.Flags().BoolVar(&showMetrics, "metrics", false, "print the collected prometheus metrics")

	faultsCmd := &cobra.Command{
		Use:   "faults",
		Short: "fail every copy of a growing push in turn and check the vector survives",
		RunE:  runFaults,
	}
	addPolicyFlags(faultsCmd)
	faultsCmd.Flags().IntVar(&faultSize, "size", 0, "elements before the growing push (default from config)")
	faultsCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default from config)")
	faultsCmd.Flags().BoolVar(&panicMode, "panic", false, "fail copies by panicking")

	liveCmd := &cobra.Command{
		Use:   "live [script|run_id]",
		Short: "step through a run interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addPolicyFlags(liveCmd)
	liveCmd.Flags().StringVar(&themeName, "theme", viz.ThemeCyberpunk.Name, fmt.Sprintf("color theme %v", viz.ThemeNames()))

	rootCmd.AddCommand(runCmd, scriptsCmd, presetsCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, benchCmd, faultsCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&policyName, "policy", "", fmt.Sprintf("growth policy preset %v", config.ListPresets()))
	cmd.Flags().Float64Var(&factor, "factor", 0, "growth factor override")
	cmd.Flags().IntVar(&minStep, "min-step", 0, "minimum growth step override")
}

// setup loads the config file, applies command-line overrides and builds
// the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("policy") {
		cfg.Growth = config.GrowthConfig{Name: policyName}
	}
	if flags.Changed("factor") {
		cfg.Growth.Factor = factor
	}
	if flags.Changed("min-step") {
		cfg.Growth.MinStep = minStep
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func policyLabel(g config.GrowthConfig) string {
	if g.Name != "" && g.Factor == 0 && g.MinStep == 0 {
		return g.Name
	}
	p, err := g.Policy()
	if err != nil {
		return g.Name
	}
	return p.String()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func loadScript(name string) (*scenario.Script, error) {
	if scriptFile != "" {
		return scenario.LoadScript(scriptFile)
	}
	if name == "" {
		return nil, errors.New("need a script name or --file")
	}
	return scenario.NewRegistry().Get(name)
}

func execute(ctx context.Context, cfg *config.Config, logger *zap.Logger, s *scenario.Script) (*scenario.Result, error) {
	policy, err := cfg.Growth.Policy()
	if err != nil {
		return nil, err
	}
	runner := scenario.NewRunner(policy,
		scenario.WithLogger(logger),
		scenario.WithPolicyName(policyLabel(cfg.Growth)),
	)
	return runner.Run(ctx, s)
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	s, err := loadScript(name)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := execute(ctx, cfg, logger, s)
	if err != nil {
		return err
	}

	printResult(os.Stdout, result)
	if dump {
		dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		dumper.Fdump(os.Stdout, result)
	}

	if !noSave {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(result)
		if err != nil {
			return err
		}
		logger.Info("run stored", zap.String("id", runID), zap.String("dir", cfg.DataDir))
		fmt.Printf("\nsaved: %s\n", runID)
	}

	if !result.OK() {
		return fmt.Errorf("script %s: %d violations", result.Script, len(result.Violations))
	}
	return nil
}

func printResult(w io.Writer, r *scenario.Result) {
	s := viz.DefaultStyles
	fmt.Fprintf(w, "%s  %s  policy=%s  %s\n\n", s.Title.Render(r.Script), r.Elapsed, r.Policy, s.Status(r.OK()))

	for _, st := range r.Steps {
		mark := " "
		switch {
		case len(st.Problems) > 0:
			mark = s.Fail.Render("✗")
		case st.Err != "":
			mark = s.Warn.Render("!")
		case st.Reallocated:
			mark = s.Muted.Render("*")
		}
		fmt.Fprintf(w, "%s %3d %-22s %5d/%-5d %s\n", mark, st.Index, st.Op, st.Len, st.Cap, s.RenderSlots(st.Len, st.Cap, st.Values, 16))
		if st.Err != "" {
			fmt.Fprintf(w, "        %s\n", s.Muted.Render(st.Err))
		}
	}

	fmt.Fprintln(w)
	for _, name := range []string{"allocations", "releases", "copies", "destructions", "peak_capacity"} {
		fmt.Fprintf(w, "%s%s\n", s.Label.Render(name), s.Value.Render(fmt.Sprintf("%.0f", r.Metrics[name])))
	}
	for _, v := range r.Violations {
		fmt.Fprintf(w, "%s\n", s.Fail.Render(v))
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	runs, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCRIPT\tPOLICY\tTIME\tSTEPS\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if !run.OK {
			status = fmt.Sprintf("%d violations", len(run.Violations))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Script,
			run.Policy,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	steps, err := storage.New(cfg.DataDir).LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("no data to plot")
	}

	caps := make([]float64, len(steps))
	lens := make([]float64, len(steps))
	for i, st := range steps {
		caps[i], lens[i] = float64(st.Cap), float64(st.Len)
	}

	graph := asciigraph.PlotMany([][]float64{caps, lens},
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Green),
		asciigraph.Caption(args[0]+"  capacity (cyan) / length (green)"),
	)
	fmt.Println(graph)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	path, err := storage.New(cfg.DataDir).TracePath(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(os.Stdout, f)
	return err
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	steps, err := storage.New(cfg.DataDir).LoadTrace(args[0])
	if err != nil {
		return err
	}
	svg := export.TraceToSVG(steps, svgWidth, svgHeight)
	if svg == "" {
		return fmt.Errorf("no data to export")
	}

	if svgOut == "" {
		fmt.Println(svg)
		return nil
	}
	return os.WriteFile(svgOut, []byte(svg), 0644)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	count := cfg.Bench.Count
	if benchCount > 0 {
		count = benchCount
	}
	names := cfg.Bench.Policies
	if len(args) > 0 {
		names = args
	}

	policies := make([]scenario.NamedPolicy, 0, len(names))
	for _, name := range names {
		p, err := config.GrowthConfig{Name: name}.Policy()
		if err != nil {
			return err
		}
		policies = append(policies, scenario.NamedPolicy{Name: name, Policy: p})
	}

	registry := prometheus.NewRegistry()
	collectors := metrics.NewCollectors()
	if err := collectors.Register(registry); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Debug("bench started", zap.Int("count", count), zap.Strings("policies", names))
	results, err := scenario.Bench(ctx, count, policies, collectors.Observer)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLICY\tALLOCS\tCOPIES\tCOPIES/PUSH\tFINAL CAP\tELAPSED\tGROWTH")
	for _, r := range results {
		trace := make([]float64, len(r.Capacities))
		for i, c := range r.Capacities {
			trace[i] = float64(c)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%d\t%s\t%s\n",
			r.Policy, r.Allocations, r.Copies, r.CopiesPerPush, r.FinalCap, r.Elapsed, viz.Sparkline(trace, 24))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if showMetrics {
		samples, err := metrics.Gather(registry)
		if err != nil {
			return err
		}
		fmt.Println()
		for _, s := range samples {
			fmt.Printf("%s{%s} %g\n", s.Name, s.Labels, s.Value)
		}
	}
	return nil
}

func runFaults(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sc := scenario.SweepConfig{Size: cfg.Faults.Size, Workers: cfg.Faults.Workers, Panic: cfg.Faults.Panic || panicMode}
	if faultSize > 0 {
		sc.Size = faultSize
	}
	if workers > 0 {
		sc.Workers = workers
	}
	policy, err := cfg.Growth.Policy()
	if err != nil {
		return err
	}
	sc.Policy = policy

	ctx, cancel := signalContext()
	defer cancel()

	results, err := scenario.Sweep(ctx, sc)
	if err != nil {
		return err
	}

	s := viz.DefaultStyles
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FAIL AT\tFAILED\tPANICKED\tINTACT\tLEN\tCAP\tSTATUS")
	failures := 0
	for _, r := range results {
		status := s.Status(r.OK())
		if !r.OK() {
			failures++
			status += " " + strings.Join(r.Problems, "; ")
			logger.Warn("fault case failed", zap.Int("fail_at", r.FailAt), zap.Strings("problems", r.Problems))
		}
		label := fmt.Sprintf("%d", r.FailAt)
		if r.FailAt > sc.Size+1 {
			label += " (control)"
		}
		fmt.Fprintf(w, "%s\t%v\t%v\t%v\t%d\t%d\t%s\n", label, r.Failed, r.Panicked, r.Intact, r.Len, r.Cap, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d fault cases failed", failures, len(results))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	var steps []scenario.Step
	title := args[0]
	if s, err := scenario.NewRegistry().Get(args[0]); err == nil {
		result, err := execute(context.Background(), cfg, zap.NewNop(), s)
		if err != nil {
			return err
		}
		steps = result.Steps
		title = fmt.Sprintf("%s (%s)", s.Name, result.Policy)
	} else {
		steps, err = storage.New(cfg.DataDir).LoadTrace(args[0])
		if err != nil {
			return fmt.Errorf("%s is neither a script nor a stored run: %w", args[0], err)
		}
	}
	logger.Debug("live view", zap.String("title", title), zap.Int("steps", len(steps)))

	p := tea.NewProgram(viz.NewModel(title, steps, viz.GetTheme(themeName)), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
