package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"imagededup/dedup"
	"imagededup/hasher"
	"imagededup/logging"
	"imagededup/resolver"
	"imagededup/scanner"
	"imagededup/signalhandler"
)

// config carries the fully parsed and validated command line through the run
type config struct {
	Targets       []string
	Threshold     float64
	AutoThreshold float64
	AutoEnabled   bool
	ListMode      bool
	PairsMode     bool
	ViewerCommand string
	Force         bool
	Quiet         bool
	DryRun        bool
	ExifTime      bool
	DebugMode     bool
	LogPath       string

	In  io.Reader
	Out io.Writer
}

func main() {
	// Set up proper signal handling
	signalhandler.SetupHandler()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfg config

	cmd := &cobra.Command{
		Use:   "imagededup [flags] TARGET...",
		Short: "Find and remove perceptually similar images",
		Long: `imagededup scans files and directories for images, computes a perceptual
hash per image, clusters near-duplicates under a distance threshold, and
deletes the copies you do not want to keep. Duplicates are either reviewed
interactively through an external image viewer or resolved automatically by
keeping the oldest file in each cluster.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Targets = args
			cfg.AutoEnabled = cmd.Flags().Changed("auto-threshold")
			cfg.In = cmd.InOrStdin()
			cfg.Out = cmd.OutOrStdout()
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.Float64VarP(&cfg.Threshold, "threshold", "t", 0.3,
		"distance threshold at which to show potential duplicates, or to include them in -l output")
	flags.Float64VarP(&cfg.AutoThreshold, "auto-threshold", "a", 0,
		"distance threshold at which to automatically delete duplicates, keeping the oldest (disabled unless set)")
	flags.BoolVarP(&cfg.ListMode, "list", "l", false,
		"print pairs of potential duplicates sorted by distance instead of deleting")
	flags.BoolVarP(&cfg.PairsMode, "pairs", "p", false,
		"disable clustering and review one pair of duplicates at a time")
	flags.StringVarP(&cfg.ViewerCommand, "viewer-command", "c", "feh -.",
		"command used to show potential duplicates")
	flags.BoolVarP(&cfg.Force, "force", "f", false,
		"disable the file extension check before hashing files")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false,
		"suppress warnings and progress output")
	flags.BoolVarP(&cfg.DryRun, "dry-run", "d", false,
		"print the files that would be deleted instead of deleting them")
	flags.BoolVar(&cfg.ExifTime, "exif-time", false,
		"prefer the EXIF capture time over the file modification time when picking the oldest file")
	flags.BoolVar(&cfg.DebugMode, "debug", false,
		"enable debug logging")
	flags.StringVar(&cfg.LogPath, "logfile", "",
		"write log output to this file as well")

	return cmd
}

func run(cfg config) error {
	// Configuration errors are fatal before any processing starts
	if cfg.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %g", cfg.Threshold)
	}
	if cfg.AutoEnabled && cfg.AutoThreshold < 0 {
		return fmt.Errorf("auto-threshold must be non-negative, got %g", cfg.AutoThreshold)
	}

	if err := logging.Setup(cfg.DebugMode, cfg.Quiet, cfg.LogPath); err != nil {
		return err
	}
	defer logging.Close()

	fs := afero.NewOsFs()

	scanOpts := scanner.ScanOptions{
		Force:      cfg.Force,
		Quiet:      cfg.Quiet,
		MaxWorkers: signalhandler.OptimalWorkers(),
	}

	files, err := scanner.CollectTargets(fs, cfg.Targets, scanOpts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cfg.Out, "No image files found.")
		return nil
	}

	if cfg.ExifTime {
		times, err := scanner.NewExifTimeSource()
		if err != nil {
			logging.Warnf("exiftool unavailable, falling back to modification times: %v", err)
		} else {
			scanOpts.Times = times
			defer times.Close()
		}
	}

	perception := hasher.NewPerceptionHasher(fs)
	records, failures := scanner.HashFiles(fs, perception, files, scanOpts)

	matrix, err := dedup.ComputeMatrix(records, func(a, b dedup.Record) (float64, error) {
		return perception.Distance(a.Hash, b.Hash)
	})
	if err != nil {
		return err
	}

	if cfg.ListMode {
		for _, pair := range matrix.PairsWithin(cfg.Threshold) {
			fmt.Fprintf(cfg.Out, "%s\t%s\t%g\n", pair.Path1, pair.Path2, pair.Distance)
		}
		reportFailures(failures)
		return nil
	}

	stdin := bufio.NewReader(cfg.In)

	outcomes, err := resolver.Resolve(matrix, resolver.Options{
		Threshold:     cfg.Threshold,
		AutoThreshold: cfg.AutoThreshold,
		AutoEnabled:   cfg.AutoEnabled,
		PairsOnly:     cfg.PairsMode,
		Selector:      resolver.NewViewer(cfg.ViewerCommand, stdin, cfg.Out),
	})
	if err != nil {
		return err
	}

	deleter := &resolver.Deleter{
		Fs:     fs,
		DryRun: cfg.DryRun,
		In:     stdin,
		Out:    cfg.Out,
	}
	if _, err := deleter.Run(outcomes); err != nil {
		return err
	}

	reportFailures(failures)
	return nil
}

// reportFailures surfaces hashing failures at the end of the run, after all
// user interaction, so they are not lost in the prompt scrollback
func reportFailures(failures []scanner.HashFailure) {
	for _, failure := range failures {
		logging.Warnf("failed to compute hash for %s: %v", failure.Path, failure.Err)
	}
}
