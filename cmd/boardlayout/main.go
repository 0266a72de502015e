package main

import (
	"context"
	"fmt"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/boardlayout/pkg/catalog"
	"github.com/dshills/boardlayout/pkg/export"
	"github.com/dshills/boardlayout/pkg/pipeline"
)

const (
	version = "1.0.0"
)

// CLI flags
var (
	designPath  = flag.String("design", "", "Path to the design spec JSON file (required)")
	catalogDir  = flag.String("catalog", "", "Path to the catalog component directory (required)")
	configPath  = flag.String("config", "", "Path to YAML pipeline config (optional; defaults used if omitted)")
	outputDir   = flag.String("output", ".", "Output directory for generated files")
	format      = flag.String("format", "json", "Export format: json, svg, or all")
	seedFlag    = flag.Uint64("seed", 0, "Override the seed from config (0 = use config seed)")
	verbose     = flag.Bool("verbose", false, "Enable verbose output")
	versionF    = flag.Bool("version", false, "Print version and exit")
	help        = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *versionF {
		fmt.Printf("boardlayout version %s\n", version)
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	if *designPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -design flag is required")
		printUsage()
		os.Exit(1)
	}
	if *catalogDir == "" {
		fmt.Fprintln(os.Stderr, "Error: -catalog flag is required")
		printUsage()
		os.Exit(1)
	}

	validFormats := map[string]bool{"json": true, "svg": true, "all": true}
	if !validFormats[*format] {
		fmt.Fprintf(os.Stderr, "Error: invalid format %q, must be one of: json, svg, all\n", *format)
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	var cfg *pipeline.Config
	if *configPath != "" {
		if *verbose {
			fmt.Printf("Loading configuration from %s\n", *configPath)
		}
		loaded, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = pipeline.DefaultConfig()
	}
	cfg.DesignPath = *designPath
	cfg.CatalogDir = *catalogDir

	if *seedFlag != 0 {
		if *verbose {
			fmt.Printf("Overriding seed from %d to %d\n", cfg.Seed, *seedFlag)
		}
		cfg.Seed = *seedFlag
	}

	if *verbose {
		fmt.Printf("Using seed: %d\n", cfg.Seed)
		fmt.Printf("Design: %s\n", cfg.DesignPath)
		fmt.Printf("Catalog: %s\n", cfg.CatalogDir)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	builder := pipeline.NewBuilder()

	start := time.Now()
	if *verbose {
		fmt.Println("Running placement + routing pipeline...")
	}

	artifact, err := builder.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	elapsed := time.Since(start)
	if *verbose {
		fmt.Printf("Pipeline completed in %v\n", elapsed)
		printStats(artifact)
	}

	baseName := fmt.Sprintf("board_%d", cfg.Seed)

	if *format == "json" || *format == "all" {
		if err := exportJSON(artifact, baseName); err != nil {
			return err
		}
	}

	if *format == "svg" || *format == "all" {
		if err := exportSVG(artifact, baseName, cfg); err != nil {
			return err
		}
	}

	if len(artifact.Routing.FailedNets) > 0 {
		fmt.Printf("Completed with %d unrouted net(s): %v\n", len(artifact.Routing.FailedNets), artifact.Routing.FailedNets)
	} else {
		fmt.Printf("Successfully placed and routed board (seed=%d) in %v\n", cfg.Seed, elapsed)
	}
	return nil
}

func exportJSON(artifact *pipeline.Artifact, baseName string) error {
	placementFile := filepath.Join(*outputDir, baseName+".placement.json")
	routingFile := filepath.Join(*outputDir, baseName+".routing.json")
	if *verbose {
		fmt.Printf("Exporting JSON to %s and %s\n", placementFile, routingFile)
	}

	placementData, err := export.ExportPlacementJSON(artifact)
	if err != nil {
		return fmt.Errorf("failed to export placement JSON: %w", err)
	}
	if err := os.WriteFile(placementFile, placementData, 0644); err != nil {
		return fmt.Errorf("failed to write placement JSON: %w", err)
	}

	routingData, err := export.ExportRoutingJSON(artifact)
	if err != nil {
		return fmt.Errorf("failed to export routing JSON: %w", err)
	}
	if err := os.WriteFile(routingFile, routingData, 0644); err != nil {
		return fmt.Errorf("failed to write routing JSON: %w", err)
	}

	return nil
}

func exportSVG(artifact *pipeline.Artifact, baseName string, cfg *pipeline.Config) error {
	filename := filepath.Join(*outputDir, baseName+".svg")
	if *verbose {
		fmt.Printf("Exporting SVG to %s\n", filename)
	}

	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("failed to reload catalog for SVG export: %w", err)
	}

	opts := export.DefaultSVGOptions()
	opts.Title = fmt.Sprintf("Board Layout (seed=%d)", cfg.Seed)

	if err := export.SaveSVGToFile(artifact, cat, filename, opts); err != nil {
		return fmt.Errorf("failed to export SVG: %w", err)
	}

	if *verbose {
		info, _ := os.Stat(filename)
		fmt.Printf("  Wrote %d bytes\n", info.Size())
	}

	return nil
}

// printStats prints pipeline statistics.
func printStats(artifact *pipeline.Artifact) {
	fmt.Println("\nBoard Statistics:")
	fmt.Printf("  Components: %d\n", len(artifact.Placement.Components))
	fmt.Printf("  Nets: %d\n", len(artifact.Placement.Nets))
	fmt.Printf("  Traces: %d\n", len(artifact.Routing.Traces))
	fmt.Printf("  Failed nets: %d\n", len(artifact.Routing.FailedNets))

	if artifact.Report != nil {
		fmt.Printf("\nValidation: %s\n", validationStatus(artifact.Report.Passed))
		if len(artifact.Report.Errors) > 0 {
			fmt.Printf("  Errors: %d\n", len(artifact.Report.Errors))
		}
	}
}

func validationStatus(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "\nUsage: boardlayout -design <design.json> -catalog <catalog-dir> [options]")
	fmt.Fprintln(os.Stderr, "\nRun 'boardlayout -help' for detailed help")
}

func printHelp() {
	fmt.Printf("boardlayout version %s\n\n", version)
	fmt.Println("A command-line tool for placing and routing component designs onto a board outline.")
	fmt.Println("\nUsage:")
	fmt.Println("  boardlayout -design <design.json> -catalog <catalog-dir> [options]")
	fmt.Println("\nRequired Flags:")
	fmt.Println("  -design string")
	fmt.Println("        Path to the design spec JSON file")
	fmt.Println("  -catalog string")
	fmt.Println("        Path to the catalog component directory")
	fmt.Println("\nOptional Flags:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML pipeline config (trace rules, router knobs)")
	fmt.Println("  -output string")
	fmt.Println("        Output directory for generated files (default: current directory)")
	fmt.Println("  -format string")
	fmt.Println("        Export format: json, svg, or all (default: json)")
	fmt.Println("  -seed uint")
	fmt.Println("        Override the seed from config (0 = use config seed) (default: 0)")
	fmt.Println("  -verbose")
	fmt.Println("        Enable verbose output")
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println("  -help")
	fmt.Println("        Show this help message")
	fmt.Println("\nExamples:")
	fmt.Println("  # Place and route with default JSON export")
	fmt.Println("  boardlayout -design flashlight.json -catalog ./catalog")
	fmt.Println("\n  # Custom seed and both export formats")
	fmt.Println("  boardlayout -design flashlight.json -catalog ./catalog -seed 12345 -format all -output ./out")
	fmt.Println("\n  # SVG debug visualization with verbose output")
	fmt.Println("  boardlayout -design flashlight.json -catalog ./catalog -format svg -verbose")
	fmt.Println("\nConfiguration File:")
	fmt.Println("  The optional YAML configuration file specifies trace rules and router knobs:")
	fmt.Println("  - seed (for deterministic rip-up ordering)")
	fmt.Println("  - placer.rules (trace width, clearances, grid resolution; copied into router.rules)")
	fmt.Println("  - router (turn/crossing penalties, rip-up attempt limits, time budget)")
	fmt.Println("\n  See SPEC_FULL.md for the full configuration schema.")
}
