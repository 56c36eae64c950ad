package main

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"image"
	"image/png"
	"math"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
)

var chromeBinaries = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// chromeRenderer converts the summary to HTML and screenshots it in
// headless Chrome.
type chromeRenderer struct {
	md      goldmark.Markdown
	timeout time.Duration
}

func newChromeRenderer() *chromeRenderer {
	return &chromeRenderer{md: newMarkdown(), timeout: 30 * time.Second}
}

func chromeInstalled() bool {
	for _, name := range chromeBinaries {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func (r *chromeRenderer) summaryHTML(markdown string, width float64) (string, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>")
	sb.WriteString(html.EscapeString("Synapse summary"))
	sb.WriteString("</title><style>")
	fmt.Fprintf(&sb, "body{margin:0;background:#ffffff}"+
		"#summary{box-sizing:border-box;width:%dpx;padding:%dpx;background:%s;color:%s;"+
		"font-family:Helvetica,Arial,sans-serif;font-size:%dpx;border:%dpx solid %s;border-radius:%dpx}"+
		"#summary a{color:%s}#summary pre{background:%s;padding:8px;border-radius:4px;white-space:pre-wrap}",
		int(width), int(summaryPadding), summaryBackground, textColor,
		int(summaryFontSize), int(summaryBorder), primaryColor, int(summaryRadius),
		primaryColor, summaryCodeFill)
	sb.WriteString("</style></head><body><div id=\"summary\">")
	sb.Write(body.Bytes())
	sb.WriteString("</div></body></html>")
	return sb.String(), nil
}

func (r *chromeRenderer) Render(ctx context.Context, markdown string, width, scale float64) (image.Image, error) {
	if !chromeInstalled() {
		return nil, fmt.Errorf("%w: chromium not installed", ErrRendererUnavailable)
	}
	doc, err := r.summaryHTML(markdown, width)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()
	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	dataURL := "data:text/html;charset=utf-8," + percentEncodeForDataURL(doc)

	var shot []byte
	err = chromedp.Run(taskCtx,
		emulation.SetDeviceMetricsOverride(int64(math.Ceil(width)), 600, scale, false),
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("#summary", chromedp.ByQuery),
		chromedp.Screenshot("#summary", &shot, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome screenshot failed: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

// percentEncodeForDataURL encodes s for a data url. Spaces become %20, not +.
func percentEncodeForDataURL(s string) string {
	var result strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '~':
			result.WriteRune(r)
		case r == ' ':
			result.WriteString("%20")
		default:
			for _, b := range []byte(string(r)) {
				fmt.Fprintf(&result, "%%%02X", b)
			}
		}
	}
	return result.String()
}
