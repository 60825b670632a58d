package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/ecotools/fragsim/internal/config"
	"github.com/ecotools/fragsim/internal/scenario"
	"github.com/ecotools/fragsim/internal/storage"
	"github.com/ecotools/fragsim/internal/tui"
)

var (
	dataDir    string
	configFile string

	classes     int
	dMinExp     float64
	dMaxExp     float64
	density     float64
	unit        string
	initConc    float64
	duration    float64
	dt          float64
	theta1      float64
	fragAvg     float64
	dissAvg     float64
	gamma       float64
	dissolution string
	fragments   string
	sink        bool
	integrator  string

	sweepParams []string
	sweepValues []string

	frameEvery int
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

func main() {
	rootCmd := &cobra.Command{
		Use:   "fragsim",
		Short: "size-resolved particle fragmentation and dissolution simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fragsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a parameter sweep",
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter to sweep (theta1, k_frag_avg, k_diss_avg, gamma); repeatable")
	sweepCmd.Flags().StringArrayVar(&sweepValues, "values", nil, "comma-separated values for the matching --param; repeatable")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with a live terminal view",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameEvery, "every", 1, "render every nth output step")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, listCmd, plotCmd, exportCmd, liveCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().IntVar(&classes, "classes", config.DefaultClasses, "number of size classes")
	cmd.Flags().Float64Var(&dMinExp, "dmin", config.DefaultMinExp, "log10 of smallest diameter (m)")
	cmd.Flags().Float64Var(&dMaxExp, "dmax", config.DefaultMaxExp, "log10 of largest diameter (m)")
	cmd.Flags().Float64Var(&density, "density", config.DefaultDensity, "polymer density (kg/m3)")
	cmd.Flags().StringVar(&unit, "unit", "number", "run currency (number|mass); mass runs convert the initial numbers")
	cmd.Flags().Float64Var(&initConc, "conc", 42, "initial particle-number concentration in every class")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration")
	cmd.Flags().Float64Var(&dt, "dt", 1, "output grid spacing")
	cmd.Flags().Float64Var(&theta1, "theta1", config.DefaultTheta1, "fragmentation size exponent")
	cmd.Flags().Float64Var(&fragAvg, "kfrag", config.DefaultFragAvg, "average fragmentation rate")
	cmd.Flags().Float64Var(&dissAvg, "kdiss", 0, "average dissolution rate")
	cmd.Flags().Float64Var(&gamma, "gamma", 0, "dissolution surface exponent")
	cmd.Flags().StringVar(&dissolution, "dissolution", "constant", "dissolution scaling (constant|surface_area)")
	cmd.Flags().StringVar(&fragments, "fragments", "even", "fragment split policy (even|cascade)")
	cmd.Flags().BoolVar(&sink, "sink", false, "treat the finest class as a terminal sink")
	cmd.Flags().StringVar(&integrator, "integrator", "rk45",
		"integrator ("+strings.Join(scenario.Integrators(), "|")+")")
}

// buildConfig merges the scenario file (if given) with explicit flag
// overrides. Flags win only when set on the command line.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("classes") {
		cfg.Classes = classes
	}
	if cmd.Flags().Changed("dmin") {
		cfg.DMinExp = dMinExp
	}
	if cmd.Flags().Changed("dmax") {
		cfg.DMaxExp = dMaxExp
	}
	if cmd.Flags().Changed("density") {
		cfg.Density = density
	}
	if cmd.Flags().Changed("unit") {
		cfg.Unit = unit
	}
	if cmd.Flags().Changed("conc") {
		cfg.InitConc = config.Broadcast{initConc}
	}
	if cmd.Flags().Changed("time") {
		cfg.Run.Duration = duration
	}
	if cmd.Flags().Changed("dt") {
		cfg.Run.Dt = dt
	}
	if cmd.Flags().Changed("theta1") {
		cfg.Kinetics.Theta1 = theta1
	}
	if cmd.Flags().Changed("kfrag") {
		cfg.Kinetics.FragAvg = fragAvg
	}
	if cmd.Flags().Changed("kdiss") {
		cfg.Kinetics.DissAvg = dissAvg
	}
	if cmd.Flags().Changed("gamma") {
		cfg.Kinetics.Gamma = gamma
	}
	if cmd.Flags().Changed("dissolution") {
		cfg.Kinetics.Dissolution = dissolution
	}
	if cmd.Flags().Changed("fragments") {
		cfg.Fragments = fragments
	}
	if cmd.Flags().Changed("sink") {
		cfg.Kinetics.SmallestIsSink = sink
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	sc, err := scenario.Build(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Println("running simulation...")
	start := time.Now()

	tr, err := sc.Run(context.Background())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Diameters:  sc.Grid().Diameters(),
		Unit:       cfg.Unit,
		Integrator: cfg.Integrator,
		Dt:         cfg.Run.Dt,
		Duration:   cfg.Run.Duration,
		Theta1:     cfg.Kinetics.Theta1,
		FragAvg:    cfg.Kinetics.FragAvg,
		DissAvg:    cfg.Kinetics.DissAvg,
	}, tr)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)

	fmt.Println()
	fmt.Println(headerStyle.Render("size classes"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CLASS\tDIAMETER\tK_FRAG\tK_DISS\tT_CHAR\tC(0)\tC(T)")
	last := tr.Len() - 1
	for k := 0; k < tr.Classes(); k++ {
		tChar := "-"
		if kf := sc.Rates().Frag(k); kf > 0 {
			tChar = fmt.Sprintf("%.4g", 1/kf)
		}
		fmt.Fprintf(w, "%d\t%.3e\t%.4g\t%.4g\t%s\t%.4g\t%.4g\n",
			k,
			sc.Grid().Diameter(k),
			sc.Rates().Frag(k),
			sc.Rates().Diss(k),
			tChar,
			tr.Concentration(0, k),
			tr.Concentration(last, k),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nparticulate total: %.6g -> %.6g\n", tr.Total(0), tr.Total(last))
	fmt.Printf("dissolved:         %.6g\n", tr.DissolvedAt(last))

	fmt.Println("\nmetrics:")
	for name, val := range tr.Metrics() {
		fmt.Printf("  %s: %.6g\n", name, val)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param with matching --values is required")
	}
	if len(sweepParams) != len(sweepValues) {
		return fmt.Errorf("got %d --param flags but %d --values flags", len(sweepParams), len(sweepValues))
	}

	values := make([][]float64, len(sweepValues))
	for i, list := range sweepValues {
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return fmt.Errorf("bad value %q for --param %s: %w", field, sweepParams[i], err)
			}
			values[i] = append(values[i], v)
		}
	}

	sw, err := scenario.NewSweep(sweepParams, values)
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %d runs...\n", len(sw.Expand()))
	start := time.Now()

	results, err := sw.Run(context.Background(), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(sweepParams)+2)
	header = append(header, sweepParams...)
	header = append(header, "PARTICULATE(T)", "DISSOLVED(T)")
	fmt.Fprintln(w, strings.ToUpper(strings.Join(header, "\t")))

	for _, res := range results {
		last := res.Trajectory.Len() - 1
		row := make([]string, 0, len(sweepParams)+2)
		for _, name := range sweepParams {
			row = append(row, fmt.Sprintf("%.4g", res.Params[name]))
		}
		row = append(row,
			fmt.Sprintf("%.6g", res.Trajectory.Total(last)),
			fmt.Sprintf("%.6g", res.Trajectory.DissolvedAt(last)),
		)
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tCLASSES\tUNIT\tINTEG\tDURATION\tK_FRAG\tK_DISS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%.2f\t%.4g\t%.4g\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Classes,
			run.Unit,
			run.Integrator,
			run.Duration,
			run.FragAvg,
			run.DissAvg,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	_, conc, dissolved, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(conc) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(conc))

	for k := 0; k < meta.Classes; k++ {
		data := make([]float64, len(conc))
		for i := range conc {
			data[i] = conc[i][k]
		}

		caption := fmt.Sprintf("class %d", k)
		if k < len(meta.Diameters) {
			caption = fmt.Sprintf("class %d (d = %.3e m)", k, meta.Diameters[k])
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		))
		fmt.Println()
	}

	if anyNonZero(dissolved) {
		fmt.Println(asciigraph.Plot(dissolved,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption("cumulative dissolved"),
		))
	}
	return nil
}

func anyNonZero(vs []float64) bool {
	for _, v := range vs {
		if v != 0 {
			return true
		}
	}
	return false
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	sc, err := scenario.Build(cfg)
	if err != nil {
		return err
	}

	stream := tui.NewStream(cfg.Classes, frameEvery)
	sc.Simulator().AddObserver(stream)

	runErr := make(chan error, 1)
	go func() {
		defer stream.Close()
		_, err := sc.Run(context.Background())
		runErr <- err
	}()

	p := tea.NewProgram(tui.NewModel(sc.Grid().Diameters(), stream.Frames()))
	if _, err := p.Run(); err != nil {
		return err
	}

	if err := <-runErr; err != nil {
		return err
	}
	fmt.Println("run complete")
	return nil
}
