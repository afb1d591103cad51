package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aragorn2101/Bras-dEau-RFI/internal/rfi"
	"github.com/aragorn2101/Bras-dEau-RFI/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if config.List {
		return listRuns(ctx, config)
	}
	if config.FromRun > 0 {
		return exportArchivedRun(ctx, config, logger)
	}

	if info, err := os.Stat(config.DataDir); err != nil || !info.IsDir() {
		return fmt.Errorf("cannot access data directory '%s'", config.DataDir)
	}

	catalog, err := rfi.Scan(config.DataDir)
	if err != nil {
		return err
	}

	logger.Info("scanned data directory",
		slog.String("dir", config.DataDir),
		slog.Int("files", len(catalog)))

	pipeline := rfi.NewPipeline(
		rfi.WithLogger(logger),
		rfi.WithFlagThreshold(config.FlagThreshold()),
		rfi.WithCadence(config.Settings.Cadence()))

	result, err := pipeline.Run(ctx, catalog, config.Window())
	if err != nil {
		return err
	}

	// Show the reconciled range and file accounting, then hand the
	// decision to the user before any number crunching happens.
	fmt.Println()
	fmt.Print(result.Report(pipeline.Cadence()))
	if rejects := result.DescribeRejects(); rejects != "" {
		fmt.Println()
		fmt.Print(rejects)
	}

	if !config.AssumeYes && !confirm("Do you wish to proceed with calculations? (y/n)  ") {
		logger.Info("aborted by user")
		return nil
	}

	average, err := rfi.Average(result.Survivors)
	if err != nil {
		return err
	}

	gainTable := config.GainTable
	if gainTable == "" {
		gainTable = config.Settings.GainTables[int(config.Band)]
	}

	if gainTable != "" {
		table, err := rfi.LoadMeasurement(gainTable, config.Band.Params().Bins)
		if err != nil {
			return fmt.Errorf("loading gain table: %w", err)
		}
		if err = average.SubtractGainTable(table); err != nil {
			return fmt.Errorf("subtracting gain table: %w", err)
		}
	} else if config.SubtractFlatGain {
		average.SubtractGain(config.Band.Params().AmplifierGain)
	}

	logger.Info("writing averaged spectrum", slog.String("destination", config.OutputFile))
	if err = writeAverageCSV(config.OutputFile, average); err != nil {
		return err
	}

	if config.DBPath != "" {
		if err = archiveRun(ctx, config, result, average); err != nil {
			return err
		}
		logger.Info("archived run", slog.String("db", config.DBPath))
	}

	return nil
}

// listRuns prints the request, the reconciled range and the file
// accounting of every archived run.
func listRuns(ctx context.Context, config *Config) error {
	store := storage.NewStore(config.DBPath)
	defer store.Close()

	runs, err := store.Runs(ctx)
	if err != nil {
		return fmt.Errorf("listing archived runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("#%d  %s  %-11s  %s Pol %s Az %03d Band %d  %s --> %s  valid %d/%d (flagged %d, unreadable %d)\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04"), run.Mode,
			run.Site, run.Polarisation, run.Azimuth, run.Band,
			run.ActualStart.Format("2006-01-02 15:04"), run.ActualEnd.Format("2006-01-02 15:04"),
			run.ValidFiles, run.MatchedFiles, run.FlaggedFiles, run.UnreadableFiles)
	}
	return nil
}

// exportArchivedRun writes the spectrum stored for an earlier run, so a
// plot can be regenerated without the raw files on hand.
func exportArchivedRun(ctx context.Context, config *Config, logger *slog.Logger) error {
	store := storage.NewStore(config.DBPath)
	defer store.Close()

	average, err := store.AverageSpectrum(ctx, config.FromRun)
	if err != nil {
		return fmt.Errorf("loading archived spectrum: %w", err)
	}

	logger.Info("writing archived spectrum",
		slog.Int64("run", config.FromRun),
		slog.String("destination", config.OutputFile))
	return writeAverageCSV(config.OutputFile, average)
}

func archiveRun(ctx context.Context, config *Config, result *rfi.Result, average *rfi.AveragePower) error {
	store := storage.NewStore(config.DBPath)
	defer store.Close()

	runID, err := store.SaveRun(ctx, storage.ModeAverage, result, config.FlagThreshold())
	if err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}
	if err = store.SaveAverage(ctx, runID, average); err != nil {
		return fmt.Errorf("archiving averaged spectrum: %w", err)
	}

	return nil
}

func writeAverageCSV(path string, average *rfi.AveragePower) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	w := bufio.NewWriter(out)
	for i, freq := range average.Frequencies {
		fmt.Fprintf(w, "%f,%f\n", freq, average.Powers[i])
	}

	if err = w.Flush(); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	return out.Close()
}

func confirm(prompt string) bool {
	fmt.Println()
	fmt.Print(prompt)

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y"
}
