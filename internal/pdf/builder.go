// Package pdf draws the technical report: a branded cover, the
// before/after evidence pairs with captions and observations, and the
// one-image-per-page acta annex, then merges everything into the final
// document.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// Layout constants, in points on a letter page with 50pt margins.
const (
	pageMargin  = 50.0
	imageWidth  = 220.0
	imageHeight = 160.0
	gapX        = 60.0
	logoWidth   = 120.0

	// pairsPerPage is the pagination rule: a page break after every
	// second evidence pair.
	pairsPerPage = 2
)

// Image is one drawable picture plus its technician observation.
type Image struct {
	Data        []byte
	Observacion string
}

// Pair is one before/after evidence couple.
type Pair struct {
	Antes   Image
	Despues Image
}

// Cover is the report heading block.
type Cover struct {
	Title            string
	Ubicacion        string
	Generado         string // pre-formatted timestamp line
	NumeroIncidencia string
	Regional         string
	// Logos are drawn top-left and top-right; nil entries are skipped.
	LogoLeft  []byte
	LogoRight []byte
}

// BuildEvidencePDF writes the evidence report to path and returns its page
// count. Pairs land two per page starting under the cover block.
func BuildEvidencePDF(path string, cover Cover, pairs []Pair) (int, error) {
	doc := gofpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(false, pageMargin)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	drawCover(doc, tr, cover)

	startX := pageMargin
	y := doc.GetY()

	for i, pair := range pairs {
		y = drawPair(doc, tr, pair, startX, y)

		breakHere := (i+1)%pairsPerPage == 0 && i != len(pairs)-1
		if breakHere {
			doc.AddPage()
			y = pageMargin
		}
	}

	if doc.Err() {
		return 0, fmt.Errorf("draw evidence pdf: %w", doc.Error())
	}
	if err := doc.OutputFileAndClose(path); err != nil {
		return 0, fmt.Errorf("write evidence pdf: %w", err)
	}
	return doc.PageCount(), nil
}

func drawCover(doc *gofpdf.Fpdf, tr func(string) string, cover Cover) {
	pageWidth, _ := doc.GetPageSize()

	if cover.LogoRight != nil {
		drawImageBox(doc, cover.LogoRight, pageWidth-pageMargin-logoWidth, 40, logoWidth, 50)
	}
	if cover.LogoLeft != nil {
		drawImageBox(doc, cover.LogoLeft, pageMargin, 40, 100, 50)
	}

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 24)
	doc.SetXY(pageMargin, 100)
	doc.CellFormat(pageWidth-2*pageMargin, 28, tr(cover.Title), "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(pageWidth-2*pageMargin, 20, tr(cover.Ubicacion), "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(pageWidth-2*pageMargin, 16, tr("Generado: "+cover.Generado), "", 1, "C", false, 0, "")

	if cover.NumeroIncidencia != "" {
		doc.CellFormat(pageWidth-2*pageMargin, 16, tr("Incidencia: "+cover.NumeroIncidencia), "", 1, "C", false, 0, "")
	}
	if cover.Regional != "" {
		doc.CellFormat(pageWidth-2*pageMargin, 16, tr("Regional: "+cover.Regional), "", 1, "C", false, 0, "")
	}

	doc.Ln(10)
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(128, 128, 128)
	doc.CellFormat(pageWidth-2*pageMargin, 14,
		tr("Este informe contiene evidencia fotográfica del antes y después de la instalación."),
		"", 1, "C", false, 0, "")
	doc.Ln(20)
}

// drawPair renders one before/after couple at y and returns the y below
// its divider rule.
func drawPair(doc *gofpdf.Fpdf, tr func(string) string, pair Pair, startX, y float64) float64 {
	rightX := startX + imageWidth + gapX

	drawImageBox(doc, pair.Antes.Data, startX, y, imageWidth, imageHeight)
	drawImageBox(doc, pair.Despues.Data, rightX, y, imageWidth, imageHeight)

	labelY := y + imageHeight + 5
	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(0, 51, 102)
	doc.SetXY(startX, labelY)
	doc.CellFormat(imageWidth, 13, tr("Antes de la instalación"), "", 0, "C", false, 0, "")
	doc.SetXY(rightX, labelY)
	doc.CellFormat(imageWidth, 13, tr("Después de la instalación"), "", 0, "C", false, 0, "")

	obsY := y + imageHeight + 25
	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(128, 128, 128)
	maxObsHeight := 0.0
	if obs := pair.Antes.Observacion; obs != "" {
		h := drawObservation(doc, tr(obs), startX, obsY)
		if h > maxObsHeight {
			maxObsHeight = h
		}
	}
	if obs := pair.Despues.Observacion; obs != "" {
		h := drawObservation(doc, tr(obs), rightX, obsY)
		if h > maxObsHeight {
			maxObsHeight = h
		}
	}

	lineY := obsY + maxObsHeight + 10
	doc.SetDrawColor(204, 204, 204)
	doc.SetLineWidth(0.5)
	doc.Line(startX, lineY, startX+imageWidth*2+gapX, lineY)

	return lineY + 20
}

func drawObservation(doc *gofpdf.Fpdf, text string, x, y float64) float64 {
	const lineHeight = 11.0
	doc.SetXY(x, y)
	doc.MultiCell(imageWidth, lineHeight, text, "", "C", false)
	return float64(len(doc.SplitLines([]byte(text), imageWidth))) * lineHeight
}

// drawImageBox draws data scaled to fit and centered inside the box.
// Undecodable or unsupported bytes leave the box empty rather than
// aborting the document.
func drawImageBox(doc *gofpdf.Fpdf, data []byte, x, y, boxW, boxH float64) {
	imgType := detectImageType(data)
	if imgType == "" {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: false}
	name := uuid.New().String()
	info := doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if doc.Err() {
		// Bad image data: clear the error so the rest of the report
		// still renders.
		doc.ClearError()
		return
	}
	if info == nil || info.Width() <= 0 || info.Height() <= 0 {
		return
	}

	scale := boxW / info.Width()
	if h := info.Height() * scale; h > boxH {
		scale = boxH / info.Height()
	}
	w := info.Width() * scale
	h := info.Height() * scale
	doc.ImageOptions(name, x+(boxW-w)/2, y+(boxH-h)/2, w, h, false, opts, 0, "")
}

func detectImageType(data []byte) string {
	switch {
	case len(data) > 3 && data[0] == 0xFF && data[1] == 0xD8:
		return "JPG"
	case len(data) > 8 && bytes.HasPrefix(data, []byte("\x89PNG")):
		return "PNG"
	case len(data) > 6 && (bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))):
		return "GIF"
	default:
		return ""
	}
}
