package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

var ErrExportInProgress = errors.New("export already in progress")

type ExportResult struct {
	Path            string
	Pages           int
	SummaryFallback bool
	Elapsed         time.Duration
}

// Exporter runs the canvas to PDF pipeline. Stages run in order with no
// retries and at most one export runs at a time.
type Exporter struct {
	rasterizer Rasterizer
	summarizer Summarizer
	renderer   SummaryRenderer
	scale      float64
	logger     *zap.Logger
	timeout    time.Duration
	busy       atomic.Bool
}

func NewExporter(r Rasterizer, s Summarizer, sr SummaryRenderer, scale float64, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scale <= 0 {
		scale = 2
	}
	return &Exporter{rasterizer: r, summarizer: s, renderer: sr, scale: scale, logger: logger, timeout: exportTimeout}
}

// newExporterFromConfig wires the default stages for cfg.
func newExporterFromConfig(cfg *Config, logger *zap.Logger) (*Exporter, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	native := newNativeRenderer(fonts)
	var renderer SummaryRenderer = native
	if cfg.SummaryRenderer == "chrome" {
		renderer = &fallbackRenderer{primary: newChromeRenderer(), secondary: native, logger: logger}
	}
	summarizer := NewHFSummarizer(cfg.HFToken, cfg.HFBaseURL, cfg.HFModel, logger.Named("summarizer"))
	return NewExporter(newGGRasterizer(fonts, logger), summarizer, renderer, cfg.ExportScale, logger.Named("export")), nil
}

func (e *Exporter) Busy() bool {
	return e.busy.Load()
}

// Export renders c and writes the document to path. A summarizer failure is
// not fatal: its fallback text is rendered instead. Any other failure leaves
// nothing at path.
func (e *Exporter) Export(ctx context.Context, c *Canvas, path string) (ExportResult, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return ExportResult{}, ErrExportInProgress
	}
	defer e.busy.Store(false)

	start := time.Now()
	result := ExportResult{Path: path}
	width, height := c.Size()
	log := e.logger.With(zap.String("path", path), zap.Float64("scale", e.scale))

	canvasImg, err := e.rasterizer.Rasterize(ctx, c, e.scale)
	if err != nil {
		log.Error("rasterize canvas failed", zap.Error(err))
		return result, fmt.Errorf("rasterize canvas: %w", err)
	}
	log.Info("canvas rasterized", zap.Int("width", canvasImg.Bounds().Dx()), zap.Int("height", canvasImg.Bounds().Dy()))

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, canvasImg); err != nil {
		return result, fmt.Errorf("encode canvas: %w", err)
	}
	dataURL := encodeDataURL("image/png", encoded.Bytes())

	summary, err := e.summarizer.Summarize(ctx, dataURL)
	if err != nil {
		log.Warn("summarizer failed, using fallback text",
			zap.Error(err),
			zap.Bool("network", errors.Is(err, ErrNetwork)),
			zap.Bool("service", errors.Is(err, ErrService)),
		)
		summary = fallbackSummary
		result.SummaryFallback = true
	}

	layout := pageLayout{width: width, height: height}
	summaryImg, err := e.renderer.Render(ctx, summary, layout.contentWidth(), e.scale)
	if err != nil {
		log.Error("render summary failed", zap.Error(err))
		return result, fmt.Errorf("render summary: %w", err)
	}

	data, pages, err := assemblePDF(canvasImg, summaryImg, layout)
	if err != nil {
		log.Error("assemble pdf failed", zap.Error(err))
		return result, fmt.Errorf("assemble pdf: %w", err)
	}
	result.Pages = pages

	if err := writeFileAtomic(path, data); err != nil {
		log.Error("write pdf failed", zap.Error(err))
		return result, fmt.Errorf("write pdf: %w", err)
	}

	result.Elapsed = time.Since(start)
	log.Info("export finished",
		zap.Int("pages", pages),
		zap.Int("bytes", len(data)),
		zap.Bool("summary_fallback", result.SummaryFallback),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".synapse-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

type exportDoneMsg struct {
	result ExportResult
	err    error
}

// exportCmd runs an export on a canvas snapshot off the UI goroutine. The
// export is abandoned after e.timeout.
func exportCmd(e *Exporter, snapshot *Canvas, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		result, err := e.Export(ctx, snapshot, path)
		return exportDoneMsg{result: result, err: err}
	}
}
