package utils

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// PDFReport summarizes how much text a PDF carries.
type PDFReport struct {
	Pages      int
	TextPages  int
	Characters int
}

// Searchable reports whether any page has extractable text. Scanned PDFs
// without a text layer are uploaded fine but never match a file search.
func (r PDFReport) Searchable() bool {
	return r.TextPages > 0
}

// InspectPDF walks every page of a PDF and counts its extractable text.
func InspectPDF(path string, logger *zap.Logger) (PDFReport, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return PDFReport{}, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	report := PDFReport{Pages: r.NumPage()}
	for pageNum := 1; pageNum <= report.Pages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			logger.Warn("Skipping null page", zap.String("path", path), zap.Int("page", pageNum))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("Failed to extract text from page",
				zap.String("path", path),
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		if n := len(strings.TrimSpace(text)); n > 0 {
			report.TextPages++
			report.Characters += n
		}
	}

	logger.Debug("PDF inspected",
		zap.String("path", path),
		zap.Int("pages", report.Pages),
		zap.Int("text_pages", report.TextPages))
	return report, nil
}
