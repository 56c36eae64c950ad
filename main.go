// Command synapse is a terminal canvas of text and image bubbles joined by
// links, exportable as a PDF with an AI-written analysis.
package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

const usage = `synapse - mind map canvas with AI-summarised PDF export

Usage:
  synapse            Open the canvas
  synapse <command> [options]

Commands:
  package    Build Chrome and Firefox extension trees from manifest.yaml
  help       Show this message

Configuration is read from ~/.synapserc, .env and SYNAPSE_* variables.
`

var errNotTerminal = errors.New("synapse needs an interactive terminal")

func main() {
	if len(os.Args) < 2 {
		os.Exit(runCanvas())
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "package":
		os.Exit(cmdPackage(args))
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runCanvas() int {
	cfg, err := loadConfig()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		color.New(color.FgRed).Fprintln(os.Stderr, errNotTerminal)
		return 1
	}

	logger := newFileLogger(cfg.LogFile, cfg.Debug)
	defer func() { _ = logger.Sync() }()

	exporter, err := newExporterFromConfig(cfg, logger)
	if err != nil {
		logger.Error("exporter setup failed", zap.Error(err))
		color.New(color.FgRed).Fprintf(os.Stderr, "synapse: %v\n", err)
		return 1
	}
	logger.Info("starting",
		zap.String("export_path", cfg.ExportPath()),
		zap.String("renderer", cfg.SummaryRenderer),
		zap.String("model", cfg.HFModel),
	)

	p := tea.NewProgram(newModel(cfg, exporter, logger), programOptions(cfg, os.Getenv("TERM"))...)
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", zap.Error(err))
		color.New(color.FgRed).Fprintf(os.Stderr, "synapse: %v\n", err)
		return 1
	}
	return 0
}

// useAltScreen reports whether the canvas should take over the whole
// terminal. Dumb terminals and the inline window setting draw in place.
func useAltScreen(cfg *Config, term string) bool {
	return term != "dumb" && cfg.Window != "inline"
}

func programOptions(cfg *Config, term string) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if useAltScreen(cfg, term) {
		opts = append(opts, tea.WithAltScreen())
	}
	return opts
}
