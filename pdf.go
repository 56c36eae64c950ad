package main

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMarginX        = 40.0
	pdfMarginTop      = 60.0
	pdfFooterReserved = 30.0
	pdfTitleY         = 40.0

	canvasPageTitle  = "Your Synapse Mind Map"
	summaryPageTitle = "AI Analysis and Verification"
	pdfFooterText    = "Generated by Synapse"
)

// pageLayout is the geometry shared by every page. One canvas pixel is one
// point, so the page has the canvas's size.
type pageLayout struct {
	width  float64
	height float64
}

func (p pageLayout) contentWidth() float64 {
	return p.width - 2*pdfMarginX
}

func (p pageLayout) contentHeight() float64 {
	return p.height - (pdfMarginTop + pdfFooterReserved)
}

// sliceRows cuts total pixel rows into consecutive [start, end) ranges of at
// most perSlice rows each.
func sliceRows(total, perSlice int) [][2]int {
	if perSlice < 1 {
		perSlice = 1
	}
	var out [][2]int
	for start := 0; start < total; start += perSlice {
		end := start + perSlice
		if end > total {
			end = total
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// summaryRowsPerPage is how many bitmap rows fit one page once the bitmap is
// scaled to the content width.
func (p pageLayout) summaryRowsPerPage(bitmapWidth int) int {
	if bitmapWidth <= 0 {
		return 1
	}
	scale := p.contentWidth() / float64(bitmapWidth)
	rows := int(math.Floor(p.contentHeight() / scale))
	if rows < 1 {
		rows = 1
	}
	return rows
}

// assemblePDF builds the export document: the canvas on page one, then the
// summary sliced across as many pages as it needs. It returns the encoded
// document and its page count.
func assemblePDF(canvasImg, summaryImg image.Image, layout pageLayout) ([]byte, int, error) {
	if layout.contentWidth() <= 0 || layout.contentHeight() <= 0 {
		return nil, 0, fmt.Errorf("page %vx%v too small for margins", layout.width, layout.height)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: layout.width, Ht: layout.height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("Synapse", true)
	pdf.SetTitle(canvasPageTitle, true)

	// Page 1: the canvas.
	pdf.AddPage()
	addTitle(pdf, layout, canvasPageTitle)
	if err := placePNG(pdf, "canvas", canvasImg, pdfMarginX, pdfMarginTop, layout.contentWidth(), layout.contentHeight()); err != nil {
		return nil, 0, err
	}
	addFooter(pdf, layout)

	// Pages 2..N: the summary.
	bounds := summaryImg.Bounds()
	scale := layout.contentWidth() / float64(bounds.Dx())
	for i, rows := range sliceRows(bounds.Dy(), layout.summaryRowsPerPage(bounds.Dx())) {
		pdf.AddPage()
		if i == 0 {
			addTitle(pdf, layout, summaryPageTitle)
		}
		slice := cropRows(summaryImg, rows[0], rows[1])
		drawnHeight := float64(rows[1]-rows[0]) * scale
		if err := placePNG(pdf, fmt.Sprintf("summary-%d", i), slice, pdfMarginX, pdfMarginTop, layout.contentWidth(), drawnHeight); err != nil {
			return nil, 0, err
		}
		addFooter(pdf, layout)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), pdf.PageCount(), nil
}

func addTitle(pdf *fpdf.Fpdf, layout pageLayout, title string) {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0xff, 0x91, 0x00)
	pdf.Text((layout.width-pdf.GetStringWidth(title))/2, pdfTitleY, title)
}

func addFooter(pdf *fpdf.Fpdf, layout pageLayout) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0x88, 0x88, 0x88)
	pdf.Text((layout.width-pdf.GetStringWidth(pdfFooterText))/2, layout.height-10, pdfFooterText)
}

func placePNG(pdf *fpdf.Fpdf, name string, img image.Image, x, y, w, h float64) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("place %s: %w", name, err)
	}
	return nil
}

// cropRows copies rows [from, to) of img into a new image.
func cropRows(img image.Image, from, to int) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), to-from))
	draw.Draw(dst, dst.Bounds(), img, image.Point{b.Min.X, b.Min.Y + from}, draw.Src)
	return dst
}
