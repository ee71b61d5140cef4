package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var pdfMagic = []byte("%PDF")

// IsPDF reports whether data starts with the PDF magic signature. Acta
// documents failing this check are omitted from the merge.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// BuildImagePagesPDF writes one image per page to path and returns the
// number of images actually rendered; undecodable images are skipped.
// Rendering zero images is an error so callers never merge an empty
// document.
func BuildImagePagesPDF(path string, images [][]byte) (int, error) {
	doc := gofpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(false, pageMargin)

	pageWidth, pageHeight := doc.GetPageSize()
	boxW := pageWidth - 2*pageMargin
	boxH := pageHeight - 2*pageMargin

	rendered := 0
	for _, img := range images {
		if detectImageType(img) == "" {
			continue
		}
		doc.AddPage()
		drawImageBox(doc, img, pageMargin, pageMargin, boxW, boxH)
		rendered++
	}

	if rendered == 0 {
		return 0, fmt.Errorf("no renderable acta images")
	}
	if doc.Err() {
		return 0, fmt.Errorf("draw acta images pdf: %w", doc.Error())
	}
	if err := doc.OutputFileAndClose(path); err != nil {
		return 0, fmt.Errorf("write acta images pdf: %w", err)
	}
	return rendered, nil
}

// Merge concatenates the input files into out, in order.
func Merge(out string, in []string) error {
	if len(in) == 0 {
		return fmt.Errorf("merge: no input files")
	}
	if err := api.MergeCreateFile(in, out, false, nil); err != nil {
		return fmt.Errorf("merge pdfs: %w", err)
	}
	return nil
}
