// Package report renders a diagnosis history record as a PDF the farmer can
// download or share with an extension officer.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/signintech/gopdf"

	"agrivoice-ai/internal/diagnosis"
)

type Service struct {
	fontPaths []string
}

func NewService() *Service {
	return &Service{
		// Common DejaVuSans locations across Alpine and Debian images.
		fontPaths: []string{
			"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		},
	}
}

// Render builds the PDF for one history record.
func (s *Service) Render(rec *diagnosis.Record) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load PDF font, is ttf-dejavu installed: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "AgriVoice Crop Diagnosis Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Date: %s", rec.CreatedAt.Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Diagnosis ID: %s", rec.ID))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Question: %s", rec.Query))
	pdf.Br(15)
	if rec.DiseaseName != "" {
		pdf.Cell(nil, fmt.Sprintf("Disease: %s", rec.DiseaseName))
		pdf.Br(15)
	}
	pdf.Cell(nil, fmt.Sprintf("Severity: %s", rec.Severity))
	pdf.Br(15)
	if len(rec.DetectedTags) > 0 {
		pdf.Cell(nil, fmt.Sprintf("Detected: %s", strings.Join(rec.DetectedTags, ", ")))
		pdf.Br(15)
	}
	pdf.Br(10)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Diagnosis:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	lines, _ := pdf.SplitText(rec.DiagnosisText, 500)
	for _, l := range lines {
		pdf.Cell(nil, l)
		pdf.Br(12)
	}

	// Translated text, when it differs from the canonical advisory.
	if rec.TranslatedText != "" && rec.TranslatedText != rec.DiagnosisText {
		pdf.Br(10)
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return nil, err
		}
		pdf.Cell(nil, fmt.Sprintf("Diagnosis (%s):", rec.Language))
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return nil, err
		}
		lines, _ := pdf.SplitText(rec.TranslatedText, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
