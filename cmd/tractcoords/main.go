package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"tractcoords/internal/logger"
	"tractcoords/pkg/atlas"
	"tractcoords/pkg/config"
	"tractcoords/pkg/extraction"
	"tractcoords/pkg/table"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "tractcoords.yaml", "YAML configuration file (defaults are used when absent)")
	atlasPath := flag.String("atlas", "", "Atlas file to use instead of searching the default locations")
	output := flag.String("output", "", "Output table (.csv, or .db/.sqlite for the SQLite store)")
	numCores := flag.Int("cores", 0, "Number of regions extracted concurrently (default: config value)")
	noComposites := flag.Bool("no-composites", false, "Skip the BCC/CC/IC/CR composite tracts")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	initConfig := flag.Bool("init-config", false, "Write the default configuration to -config and exit")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// FSLDIR and friends may come from a .env file
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *atlasPath, *output, *numCores, *noComposites, *logLevel)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level, _ := cfg.Level()
	log := logger.New(os.Stderr, level)
	if cfg.Output.Console {
		log = logger.NewConsole(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = log.WithContext(ctx)

	params, err := buildParams(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare run")
	}

	e := extraction.NewExtractor(params)
	if err := e.Process(ctx); err != nil {
		if errors.Is(err, atlas.ErrAtlasNotFound) {
			log.Error().Err(err).Msg("atlas not found")
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("extraction failed")
	}

	printSummary(e.Summary())
}

// applyFlags lets non-zero flag values override the configuration.
func applyFlags(cfg *config.Config, atlasPath, output string, numCores int, noComposites bool, logLevel string) {
	if atlasPath != "" {
		cfg.Atlas.Path = atlasPath
	}
	if output != "" {
		cfg.Output.File = output
	}
	if numCores > 0 {
		cfg.Processing.NumCores = numCores
	}
	if noComposites {
		cfg.Processing.Composites = false
	}
	if logLevel != "" {
		cfg.Output.LogLevel = logLevel
	}
}

func buildParams(cfg *config.Config) (*extraction.Params, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// The executable's directory stands in for the project root.
	execDir := ""
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	return &extraction.Params{
		Search: atlas.SearchOptions{
			Filename:   cfg.Atlas.Filename,
			Path:       cfg.Atlas.Path,
			WorkDir:    workDir,
			ExecDir:    execDir,
			EnvVar:     cfg.Atlas.EnvVar,
			EnvDefault: cfg.Atlas.EnvDefault,
		},
		OutputPath: table.ResolveOutputPath(cfg.Output.Dir, cfg.Output.File),
		NumCores:   cfg.Processing.NumCores,
		Composites: cfg.Processing.Composites,
	}, nil
}

func printSummary(s extraction.Summary) {
	fmt.Println("================================")
	fmt.Println("TRACT COORDINATE EXTRACTION")
	fmt.Println("================================")
	fmt.Printf("Atlas: %s\n", s.AtlasPath)
	fmt.Printf("Shape: %dx%dx%d\n", s.Width, s.Height, s.Depth)
	fmt.Printf("ROI labels: 1-%d\n", s.MaxLabel)
	fmt.Printf("\nExtracted %d total tracts\n", s.BaseTracts+s.CompositeTracts)
	fmt.Printf("  - %d base tracts\n", s.BaseTracts)
	fmt.Printf("  - %d composite tracts\n", s.CompositeTracts)
	if len(s.Missing) > 0 {
		fmt.Printf("  - %d without voxels: %s\n", len(s.Missing), strings.Join(s.Missing, ", "))
	}
	fmt.Printf("\nSaved to: %s\n", s.OutputPath)
	if s.RunID != uuid.Nil {
		fmt.Printf("Run ID: %s\n", s.RunID)
	}
}
