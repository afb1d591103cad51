package app

import (
	"bufio"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aragorn2101/Bras-dEau-RFI/internal/rfi"
	"github.com/aragorn2101/Bras-dEau-RFI/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
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

	window := config.Window()
	result, err := pipeline.Run(ctx, catalog, window)
	if err != nil {
		return err
	}

	report := result.Report(pipeline.Cadence())
	fmt.Println()
	fmt.Print(report)
	if rejects := result.DescribeRejects(); rejects != "" {
		fmt.Println()
		fmt.Print(rejects)
	}

	if !config.AssumeYes && !confirm("Do you wish to proceed with calculations? (y/n)  ") {
		logger.Info("aborted by user")
		return nil
	}

	spectrogram, err := rfi.NewSpectrogram(result.Survivors)
	if err != nil {
		return err
	}

	if config.SubtractFlatGain {
		spectrogram.SubtractGain(config.Band.Params().AmplifierGain)
	}

	renderer := NewSpectrogramRenderer(RenderConfig{
		ColorTheme: config.Theme,
	})

	logger.Info("rendering spectrogram",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("columns", len(spectrogram.Columns)),
			slog.Int("bins", len(spectrogram.Frequencies)),
		))

	img, err := renderer.Render(spectrogram, window, pipeline.Cadence())
	if err != nil {
		return fmt.Errorf("rendering spectrogram: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}

	if config.DBPath != "" {
		store := storage.NewStore(config.DBPath)
		defer store.Close()

		if _, err = store.SaveRun(ctx, storage.ModeSpectrogram, result, config.FlagThreshold()); err != nil {
			return fmt.Errorf("archiving run: %w", err)
		}
		logger.Info("archived run", slog.String("db", config.DBPath))
	}

	logger.Info("done",
		slog.String("date", window.Start.Format(time.DateOnly)),
		slog.Int("survivors", len(result.Survivors)))

	return nil
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
