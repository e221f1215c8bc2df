package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"gallerydiff/config"
	"gallerydiff/database"
	"gallerydiff/hashing"
	"gallerydiff/imageprocessor"
	"gallerydiff/logging"
	"gallerydiff/matching"
	"gallerydiff/report"
	"gallerydiff/scanner"
	"gallerydiff/signalhandler"
	"gallerydiff/transform"
	"gallerydiff/types"
	"gallerydiff/utils"
)

type diffOptions struct {
	configPath string
	format     string
	dbPath     string
	logFile    string
	progress   bool
	debug      bool
}

// usageError prints the usage text before surfacing err, for mistakes in the invocation
func usageError(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	return err
}

func newRootCommand() *cobra.Command {
	var opts diffOptions

	rootCmd := &cobra.Command{
		Use:   "gallerydiff REFERENCE TARGET",
		Short: "Match the images of two galleries and report what changed",
		Long: `Compares every image of the REFERENCE folder against every image of the TARGET
folder, tolerating rotation, mirroring, cropping and light edits, and prints a
changelist of unchanged, light changes, removed and added images.`,
		Example:       utils.UsageExamples("gallerydiff"),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return usageError(cmd, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, opts, args[0], args[1])
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "TOML file overriding the matching thresholds")
	flags.StringVarP(&opts.format, "format", "f", report.FormatJSON, "Output format: json, text or table")
	flags.StringVar(&opts.dbPath, "database", "", "Store the run in this SQLite database")
	flags.BoolVar(&opts.progress, "progress", false, "Show progress bars on stderr")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&opts.logFile, "logfile", "", "Write log output to this file instead of stderr")

	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newShowCommand())

	return rootCmd
}

func runDiff(cmd *cobra.Command, opts diffOptions, referenceFolder, targetFolder string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return usageError(cmd, err)
	}
	if err := report.ValidateFormat(opts.format); err != nil {
		return usageError(cmd, err)
	}
	for _, folder := range []string{referenceFolder, targetFolder} {
		if err := utils.ValidateFolder(folder); err != nil {
			return usageError(cmd, err)
		}
	}

	logFile := opts.logFile
	if logFile == "" && opts.debug {
		logFile = utils.GetDefaultLogPath()
	}
	if err := logging.SetupLogger(logFile, opts.debug); err != nil {
		return err
	}

	ctx, stop := signalhandler.SetupHandler(cmd.Context())
	defer stop()

	cfg.Matching.Workers = signalhandler.GetOptimalProcs(cfg.Matching.Workers)

	var registry *imageprocessor.ImageLoaderRegistry
	var transformer matching.Transformer
	switch cfg.Gallery.Backend {
	case config.BackendImaging:
		registry = imageprocessor.NewGoImageLoaderRegistry(cfg.Gallery.ResizeTarget)
		transformer = transform.Imaging{}
	default:
		registry = imageprocessor.NewImageLoaderRegistry(cfg.Gallery.ResizeTarget)
		transformer = imageprocessor.CVTransformer{}
	}

	var observer matching.Observer
	if opts.progress {
		observer = scanner.NewProgressTracker(cmd.ErrOrStderr())
	}

	start := time.Now()
	loadOptions := scanner.LoadOptions{MaxWorkers: cfg.Matching.Workers, Progress: observer}
	reference, err := scanner.LoadGallery(ctx, referenceFolder, registry, loadOptions)
	if err != nil {
		return fmt.Errorf("load reference gallery: %w", err)
	}
	target, err := scanner.LoadGallery(ctx, targetFolder, registry, loadOptions)
	if err != nil {
		return fmt.Errorf("load target gallery: %w", err)
	}
	logging.LogInfo("Loaded %d reference and %d target images in %v",
		len(reference), len(target), time.Since(start))

	pipeline, err := matching.NewPipeline(cfg.Matching, transformer, hashing.NewOracles(cfg.Matching.CropBinBits), observer)
	if err != nil {
		return err
	}
	changelist, err := pipeline.Run(ctx, reference, target)
	if err != nil {
		logging.LogError("Matching %s against %s failed: %v", referenceFolder, targetFolder, err)
		return err
	}
	logging.LogInfo("Matched galleries in %v", time.Since(start))

	if opts.dbPath != "" {
		if err := storeRun(ctx, opts.dbPath, cfg, referenceFolder, targetFolder, changelist); err != nil {
			return err
		}
	}

	return report.Write(cmd.OutOrStdout(), changelist, opts.format)
}

func storeRun(ctx context.Context, dbPath string, cfg config.Config, referenceFolder, targetFolder string, changelist types.Changelist) error {
	db, err := database.InitDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	rendered, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	run := database.RunInfo{
		ReferenceFolder: absPath(referenceFolder),
		TargetFolder:    absPath(targetFolder),
		Config:          string(rendered),
	}
	runID, err := database.StoreRun(ctx, db, run, changelist)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Stored run %s in %s\n", runID, dbPath)
	return nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
