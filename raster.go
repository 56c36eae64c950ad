package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

var ErrNothingToRender = errors.New("nothing to render")

// Rasterizer turns a canvas into a bitmap. Scale multiplies every length, so
// a 1200x800 canvas at scale 2 becomes a 2400x1600 image.
type Rasterizer interface {
	Rasterize(ctx context.Context, c *Canvas, scale float64) (image.Image, error)
}

type ggRasterizer struct {
	fonts  *fontSet
	client *http.Client
	logger *zap.Logger
}

func newGGRasterizer(fonts *fontSet, logger *zap.Logger) *ggRasterizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ggRasterizer{fonts: fonts, client: &http.Client{Timeout: imageFetchTimeout}, logger: logger}
}

func (r *ggRasterizer) Rasterize(ctx context.Context, c *Canvas, scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = 1
	}
	width, height := c.Size()
	imageWidth := int(math.Round(width * scale))
	imageHeight := int(math.Round(height * scale))
	if imageWidth <= 0 || imageHeight <= 0 {
		return nil, fmt.Errorf("rasterize %vx%v canvas: %w", width, height, ErrNothingToRender)
	}

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	// Links first so bubbles cover their ends.
	for _, l := range c.Links() {
		from, to, ok := c.LinkEndpoints(l)
		if !ok {
			continue
		}
		r.drawLinkPNG(dc, l, from, to, scale)
	}

	for _, b := range c.Bubbles() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.drawBubblePNG(ctx, dc, b, scale)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func (r *ggRasterizer) drawLinkPNG(dc *gg.Context, l Link, from, to Point, scale float64) {
	color := l.Color
	if color == "" {
		color = primaryColor
	}
	dc.SetHexColor(color)
	dc.SetLineWidth(2 * scale)
	dc.DrawLine(from.X*scale, from.Y*scale, to.X*scale, to.Y*scale)
	dc.Stroke()
	if l.Style == LinkArrow {
		drawArrowPNG(dc, from.X*scale, from.Y*scale, to.X*scale, to.Y*scale, scale, color)
	}
}

// drawArrowPNG fills a 10x7 arrowhead whose tip sits on (tx, ty).
func drawArrowPNG(dc *gg.Context, fx, fy, tx, ty, scale float64, color string) {
	dx := tx - fx
	dy := ty - fy
	length := math.Sqrt(dx*dx + dy*dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	arrowLength := 10 * scale
	halfWidth := 3.5 * scale

	baseX := tx - arrowLength*dx
	baseY := ty - arrowLength*dy

	dc.MoveTo(tx, ty)
	dc.LineTo(baseX+halfWidth*dy, baseY-halfWidth*dx)
	dc.LineTo(baseX-halfWidth*dy, baseY+halfWidth*dx)
	dc.ClosePath()
	dc.SetHexColor(color)
	dc.Fill()
}

func (r *ggRasterizer) drawBubblePNG(ctx context.Context, dc *gg.Context, b Bubble, scale float64) {
	x, y := b.X*scale, b.Y*scale
	w, h := b.W*scale, b.H*scale
	radius := 8 * scale

	dc.DrawRoundedRectangle(x, y, w, h, radius)
	dc.SetHexColor("#ffffff")
	dc.FillPreserve()
	dc.SetHexColor(primaryColor)
	dc.SetLineWidth(2 * scale)
	dc.Stroke()

	pad := 8 * scale
	dc.Push()
	dc.DrawRectangle(x+pad/2, y+pad/2, w-pad, h-pad)
	dc.Clip()
	// gg's Pop keeps the current clip mask; the next bubble must start unclipped.
	defer func() {
		dc.Pop()
		dc.ResetClip()
	}()

	switch b.Type {
	case BubbleImage:
		img, err := r.loadImage(ctx, b.Content)
		if err != nil {
			r.logger.Warn("bubble image unavailable", zap.String("bubble", b.ID), zap.Error(err))
			dc.SetHexColor("#eeeeee")
			dc.DrawRectangle(x+pad, y+pad, w-2*pad, h-2*pad)
			dc.Fill()
			dc.SetFontFace(r.fonts.face(fontItalic, 12*scale))
			dc.SetHexColor(footerColor)
			dc.DrawStringAnchored("image unavailable", x+w/2, y+h/2, 0.5, 0.5)
			return
		}
		fitted := fitImage(img, int(w-2*pad), int(h-2*pad))
		bounds := fitted.Bounds()
		dc.DrawImage(fitted, int(x+(w-float64(bounds.Dx()))/2), int(y+(h-float64(bounds.Dy()))/2))
	default:
		lines := layoutRuns(r.fonts, bubbleRuns(b.Content, scale), w-2*pad, 1.3)
		drawLines(dc, r.fonts, lines, x+pad, y+pad)
	}
}

// bubbleRuns converts bubble markup into runs at the given scale.
func bubbleRuns(markup string, scale float64) []textRun {
	var runs []textRun
	for i, line := range strings.Split(markup, "\n") {
		block, spans := ParseLine(line)
		size := 14.0
		bold := false
		switch block {
		case BlockTitle:
			size, bold = 22, true
		case BlockSubtitle:
			size, bold = 18, true
		}
		if i > 0 {
			runs = append(runs, textRun{Text: "\n", Size: size * scale, Color: textColor})
		}
		for _, s := range spans {
			runs = append(runs, textRun{
				Text:      s.Text,
				Style:     styleFor(bold || s.Bold, s.Italic),
				Size:      size * scale,
				Color:     textColor,
				Underline: s.Underline,
			})
		}
	}
	return runs
}

// fitImage scales img down to fit maxW x maxH, keeping its aspect ratio.
func fitImage(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if maxW <= 0 || maxH <= 0 || b.Dx() == 0 || b.Dy() == 0 {
		return img
	}
	ratio := math.Min(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	w := int(math.Max(1, math.Round(float64(b.Dx())*ratio)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*ratio)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// loadImage resolves an image bubble's source: a data url, an http(s) url or
// a local path.
func (r *ggRasterizer) loadImage(ctx context.Context, src string) (image.Image, error) {
	var data []byte
	switch {
	case strings.HasPrefix(src, "data:"):
		_, raw, err := decodeDataURL(src)
		if err != nil {
			return nil, err
		}
		data = raw
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
		}
		data, err = io.ReadAll(io.LimitReader(resp.Body, 32<<20))
		if err != nil {
			return nil, err
		}
	default:
		raw, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
