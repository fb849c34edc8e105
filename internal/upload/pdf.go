package upload

import (
	"fmt"
	"os"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Inspector validates an uploaded document and reports its page count.
type Inspector func(path string) (int, error)

// InspectPDF rejects files pdfcpu cannot read and counts pages with the
// lighter dslipak reader, falling back to pdfcpu's count.
func InspectPDF(path string) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return 0, fmt.Errorf("not a readable PDF: %v: %w", err, extractionModel.ErrValidation)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if pages, ok := countPages(f, info.Size()); ok {
		return pages, nil
	}
	return api.PageCountFile(path)
}

// countPages guards against the reader panicking on odd documents.
func countPages(f *os.File, size int64) (pages int, ok bool) {
	defer func() {
		if recover() != nil {
			pages, ok = 0, false
		}
	}()
	r, err := pdf.NewReader(f, size)
	if err != nil {
		return 0, false
	}
	return r.NumPage(), true
}
