package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/mdsim/internal/compute"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/storage"
	"github.com/san-kum/mdsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	atoms      int
	steps      int
	dt         float64
	temp       float64
	seed       int64
	backend    string
	mode       string
	split      float64
	kappa      float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mdsim",
		Short: "molecular dynamics with device-offloaded pair forces",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run with live thermo view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "time host/device splits",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchSplits,
	}
	addRunFlags(benchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run's thermo series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "show compute backends and presets",
		RunE:  showInfo,
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, listCmd, plotCmd, exportCmd, infoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&atoms, "atoms", 0, "override atom count")
	cmd.Flags().IntVar(&steps, "steps", 0, "override step count")
	cmd.Flags().Float64Var(&dt, "dt", 0, "override timestep")
	cmd.Flags().Float64Var(&temp, "temp", 0, "override initial temperature")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time)")
	cmd.Flags().StringVar(&backend, "backend", "", "compute backend: auto, cpu, cuda, opengl")
	cmd.Flags().StringVar(&mode, "mode", "", "dispatch mode: force, neigh")
	cmd.Flags().Float64Var(&split, "split", -1, "device work fraction")
	cmd.Flags().Float64Var(&kappa, "kappa", -1, "inverse Debye screening length")
}

// buildConfig resolves preset/config file plus flag overrides.
func buildConfig(args []string) (*config.Config, string, error) {
	preset := "melt"
	if len(args) > 0 {
		preset = args[0]
	}

	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset %q (see: mdsim info)", preset)
		}
	}

	if atoms > 0 {
		cfg.System.Atoms = atoms
	}
	if steps > 0 {
		cfg.Run.Steps = steps
	}
	if dt > 0 {
		cfg.Run.Dt = dt
	}
	if temp > 0 {
		cfg.Run.Temp = temp
	}
	if seed != 0 {
		cfg.Run.Seed = seed
	}
	if backend != "" {
		cfg.Device.Backend = backend
	}
	if mode != "" {
		cfg.Device.Mode = mode
	}
	if split >= 0 {
		cfg.Device.Split = split
	}
	if kappa >= 0 {
		cfg.Pair.Kappa = kappa
	}

	return cfg, preset, nil
}

func newSimulator(cfg *config.Config) (*sim.Simulator, error) {
	s, err := sim.New(cfg)
	if err != nil {
		return nil, err
	}
	s.AddMetric(metrics.NewPairEnergy())
	s.AddMetric(metrics.NewEnergyDrift())
	s.AddMetric(metrics.NewTemperature())
	s.AddMetric(metrics.NewPressure())
	return s, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, preset, err := buildConfig(args)
	if err != nil {
		return err
	}

	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := s.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println(viz.Header("run summary"))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "atoms\t%d\n", cfg.System.Atoms)
	fmt.Fprintf(w, "steps\t%d\n", result.StepsTaken)
	fmt.Fprintf(w, "wall time\t%s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "host fallback\t%.3fs\n", result.FallbackSec)
	fmt.Fprintf(w, "device memory\t%d bytes\n", s.Style().Bytes())
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Fprintf(w, "%s\t%.6f\n", name, result.Metrics[name])
	}
	w.Flush()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Preset:  preset,
		Atoms:   cfg.System.Atoms,
		Dt:      cfg.Run.Dt,
		Backend: cfg.Device.Backend,
		Mode:    cfg.Device.Mode,
		Split:   cfg.Device.Split,
		Seed:    cfg.Run.Seed,
	}, result)
	if err != nil {
		return err
	}
	fmt.Println("\nsaved:", runID)
	return nil
}

// liveObserver forwards thermo samples into the bubbletea view.
type liveObserver struct {
	ch chan<- sim.Sample
}

func (o liveObserver) OnSample(s sim.Sample) { o.ch <- s }

func runLive(cmd *cobra.Command, args []string) error {
	cfg, _, err := buildConfig(args)
	if err != nil {
		return err
	}

	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	samples := make(chan sim.Sample, 16)
	errc := make(chan error, 1)
	s.AddObserver(liveObserver{ch: samples})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_, err := s.Run(ctx)
		if err != nil {
			errc <- err
			return
		}
		close(samples)
	}()

	p := tea.NewProgram(viz.NewLive(samples, errc))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func benchSplits(cmd *cobra.Command, args []string) error {
	cfg, _, err := buildConfig(args)
	if err != nil {
		return err
	}
	cfg.Device.Backend = "cpu"
	if cfg.Run.Steps > 200 {
		cfg.Run.Steps = 200
	}

	fmt.Println(viz.Header("split timing"))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "split\twall\tfallback")

	for _, frac := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		cfg.Device.Split = frac
		s, err := newSimulator(cfg)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := s.Run(context.Background())
		s.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%.2f\t%s\t%.3fs\n", frac,
			time.Since(start).Round(time.Millisecond), result.FallbackSec)
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
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tatoms\tsteps\tbackend\tmode\tsplit")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%.2f\n", r.ID, r.Atoms, r.Steps, r.Backend, r.Mode, r.Split)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	th, err := st.LoadThermo(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\nsamples: %d\n\n", meta.ID, len(th.Steps))

	for _, col := range []string{"etotal", "temp", "evdwl", "ecoul", "press"} {
		data := th.Series[col]
		if len(data) < 2 {
			continue
		}
		fmt.Println(viz.Plot(data, col))
		fmt.Println()
	}
	return nil
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

func showInfo(cmd *cobra.Command, args []string) error {
	fmt.Println(viz.Header("backends"))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, name := range []string{"cpu", "cuda", "opengl"} {
		b, err := compute.Select(name, 1.0)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%v\n", b.Name(), b.Available())
	}
	w.Flush()

	fmt.Println()
	fmt.Println(viz.Header("presets"))
	names := config.ListPresets()
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(" ", name)
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
