package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
)

var ErrRendererUnavailable = errors.New("summary renderer unavailable")

// SummaryRenderer lays out markdown as a framed block width px wide and
// rasterizes it at scale.
type SummaryRenderer interface {
	Render(ctx context.Context, markdown string, width, scale float64) (image.Image, error)
}

const (
	summaryPadding    = 20.0
	summaryBorder     = 2.0
	summaryRadius     = 8.0
	summaryFontSize   = 12.0
	summaryBackground = "#f9f9f9"
	summaryCodeFill   = "#eeeeee"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// mdBlock is one laid out paragraph-level element.
type mdBlock struct {
	runs   []textRun
	indent float64
	bullet string
	code   bool
	rule   bool
	gap    float64 // space above
}

type nativeRenderer struct {
	fonts *fontSet
	md    goldmark.Markdown
}

func newNativeRenderer(fonts *fontSet) *nativeRenderer {
	return &nativeRenderer{fonts: fonts, md: newMarkdown()}
}

func (r *nativeRenderer) Render(ctx context.Context, markdown string, width, scale float64) (image.Image, error) {
	if width <= 2*summaryPadding {
		return nil, fmt.Errorf("summary width %v: %w", width, ErrNothingToRender)
	}
	if scale <= 0 {
		scale = 1
	}
	src := []byte(markdown)
	doc := r.md.Parser().Parse(text.NewReader(src))

	var blocks []mdBlock
	collectBlocks(doc, src, 0, &blocks)
	if len(blocks) == 0 {
		blocks = append(blocks, mdBlock{runs: []textRun{{Text: " ", Size: summaryFontSize, Color: textColor}}})
	}

	imageWidth := width * scale
	inner := (width - 2*summaryPadding) * scale

	type placed struct {
		block mdBlock
		lines []textLine
		top   float64
	}
	var layout []placed
	y := summaryPadding * scale
	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			y += b.gap * scale
		}
		scaled := make([]textRun, len(b.runs))
		for j, run := range b.runs {
			run.Size *= scale
			scaled[j] = run
		}
		indent := (b.indent + bulletWidth(b)) * scale
		var lines []textLine
		if b.rule {
			lines = []textLine{{Height: 8 * scale}}
		} else {
			lines = layoutRuns(r.fonts, scaled, inner-indent, 1.4)
		}
		layout = append(layout, placed{block: b, lines: lines, top: y})
		y += linesHeight(lines)
	}
	imageHeight := math.Ceil(y + summaryPadding*scale)

	dc := gg.NewContext(int(math.Ceil(imageWidth)), int(imageHeight))
	dc.SetHexColor("#ffffff")
	dc.Clear()

	half := summaryBorder * scale / 2
	dc.DrawRoundedRectangle(half, half, imageWidth-2*half, imageHeight-2*half, summaryRadius*scale)
	dc.SetHexColor(summaryBackground)
	dc.FillPreserve()
	dc.SetHexColor(primaryColor)
	dc.SetLineWidth(summaryBorder * scale)
	dc.Stroke()

	left := summaryPadding * scale
	for _, p := range layout {
		x := left + p.block.indent*scale
		switch {
		case p.block.rule:
			dc.SetHexColor("#cccccc")
			dc.SetLineWidth(scale)
			mid := p.top + 4*scale
			dc.DrawLine(left, mid, left+inner, mid)
			dc.Stroke()
			continue
		case p.block.code:
			dc.SetHexColor(summaryCodeFill)
			dc.DrawRoundedRectangle(x-4*scale, p.top, inner-p.block.indent*scale+8*scale, linesHeight(p.lines), 4*scale)
			dc.Fill()
		}
		if p.block.bullet != "" && len(p.lines) > 0 {
			dc.SetFontFace(r.fonts.face(fontRegular, summaryFontSize*scale))
			dc.SetHexColor(textColor)
			dc.DrawString(p.block.bullet, x, p.top+p.lines[0].Ascent)
		}
		drawLines(dc, r.fonts, p.lines, x+bulletWidth(p.block)*scale, p.top)
	}
	return dc.Image(), nil
}

func bulletWidth(b mdBlock) float64 {
	if b.bullet == "" {
		return 0
	}
	return 18
}

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 20
	case 2:
		return 17
	case 3:
		return 15
	}
	return 13
}

// collectBlocks flattens the block structure of a goldmark document.
func collectBlocks(n ast.Node, src []byte, depth int, out *[]mdBlock) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Heading:
			size := headingSize(v.Level)
			*out = append(*out, mdBlock{
				runs:   inlineRuns(v, src, textRun{Style: fontBold, Size: size, Color: textColor}),
				indent: float64(depth) * 18,
				gap:    12,
			})
		case *ast.Paragraph, *ast.TextBlock:
			*out = append(*out, mdBlock{
				runs:   inlineRuns(v, src, textRun{Size: summaryFontSize, Color: textColor}),
				indent: float64(depth) * 18,
				gap:    8,
			})
		case *ast.List:
			number := v.Start
			for item := v.FirstChild(); item != nil; item = item.NextSibling() {
				bullet := "•"
				if v.IsOrdered() {
					bullet = strconv.Itoa(number) + "."
					number++
				}
				first := len(*out)
				collectBlocks(item, src, depth+1, out)
				if first < len(*out) {
					(*out)[first].bullet = bullet
					(*out)[first].indent = float64(depth) * 18
					(*out)[first].gap = 4
				}
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			var sb strings.Builder
			lines := c.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(src))
			}
			*out = append(*out, mdBlock{
				runs:   []textRun{{Text: strings.TrimRight(sb.String(), "\n"), Style: fontMono, Size: summaryFontSize - 1, Color: textColor}},
				indent: float64(depth)*18 + 4,
				code:   true,
				gap:    8,
			})
		case *ast.ThematicBreak:
			*out = append(*out, mdBlock{rule: true, gap: 8})
		case *ast.Blockquote:
			first := len(*out)
			collectBlocks(v, src, depth+1, out)
			for i := first; i < len(*out); i++ {
				for j := range (*out)[i].runs {
					(*out)[i].runs[j].Style = styleFor(isBold((*out)[i].runs[j].Style), true)
				}
			}
		default:
			collectBlocks(c, src, depth, out)
		}
	}
}

func isBold(s fontStyle) bool {
	return s == fontBold || s == fontBoldItalic
}

func isItalic(s fontStyle) bool {
	return s == fontItalic || s == fontBoldItalic
}

// inlineRuns collects the styled text below an inline container.
func inlineRuns(n ast.Node, src []byte, base textRun) []textRun {
	var runs []textRun
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			r := base
			r.Text = string(v.Segment.Value(src))
			switch {
			case v.HardLineBreak():
				r.Text += "\n"
			case v.SoftLineBreak():
				r.Text += " "
			}
			runs = append(runs, r)
		case *ast.String:
			r := base
			r.Text = string(v.Value)
			runs = append(runs, r)
		case *ast.Emphasis:
			r := base
			if base.Style != fontMono {
				if v.Level >= 2 {
					r.Style = styleFor(true, isItalic(base.Style))
				} else {
					r.Style = styleFor(isBold(base.Style), true)
				}
			}
			runs = append(runs, inlineRuns(v, src, r)...)
		case *ast.CodeSpan:
			r := base
			r.Style = fontMono
			runs = append(runs, inlineRuns(v, src, r)...)
		case *ast.Link:
			r := base
			r.Color = primaryColor
			r.Underline = true
			runs = append(runs, inlineRuns(v, src, r)...)
		case *ast.AutoLink:
			r := base
			r.Text = string(v.URL(src))
			r.Color = primaryColor
			r.Underline = true
			runs = append(runs, r)
		case *ast.RawHTML, *ast.Image:
		default:
			runs = append(runs, inlineRuns(c, src, base)...)
		}
	}
	return runs
}

// fallbackRenderer uses primary and falls back to secondary when primary
// fails, typically because Chrome is not installed.
type fallbackRenderer struct {
	primary   SummaryRenderer
	secondary SummaryRenderer
	logger    *zap.Logger
}

func (r *fallbackRenderer) Render(ctx context.Context, markdown string, width, scale float64) (image.Image, error) {
	img, err := r.primary.Render(ctx, markdown, width, scale)
	if err == nil {
		return img, nil
	}
	r.logger.Warn("summary renderer failed, using native renderer", zap.Error(err))
	return r.secondary.Render(ctx, markdown, width, scale)
}
