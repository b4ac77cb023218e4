package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"estate/server/internal/models"
)

// pdfImageTypes are the image formats gofpdf can embed
var pdfImageTypes = map[string]string{
	".jpg":  "JPG",
	".jpeg": "JPG",
	".png":  "PNG",
	".gif":  "GIF",
}

// WriteBrochurePDF renders a one page sales brochure for a property.
// The main image is embedded when its format is supported.
func WriteBrochurePDF(w io.Writer, p *models.Property) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(p.Name), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, tr(p.Name), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(100, 100, 100)
	if location := strings.TrimSpace(strings.Join([]string{p.Address, p.Postcode, p.City}, " ")); location != "" {
		pdf.CellFormat(0, 6, tr(location), "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if img := mainImage(p); img != nil {
		if imageType, ok := pdfImageTypes[strings.ToLower(filepath.Ext(img.FilePath))]; ok {
			opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
			pdf.ImageOptions(img.FilePath, 10, pdf.GetY(), 190, 0, true, opts, 0, "")
			pdf.Ln(4)
		}
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(190, 8, "Key facts", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, row := range brochureRows(p) {
		pdf.CellFormat(70, 7, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(120, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}

	if p.Description != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Description", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(p.Description), "", "L", false)
	}

	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, fmt.Sprintf("Generated on %s", time.Now().UTC().Format("2006-01-02")), "", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render brochure: %w", err)
	}
	return nil
}

func mainImage(p *models.Property) *models.PropertyImage {
	for i := range p.Images {
		if p.MainImageID != nil && p.Images[i].ID == *p.MainImageID {
			return &p.Images[i]
		}
	}
	if len(p.Images) > 0 {
		return &p.Images[0]
	}
	return nil
}

func brochureRows(p *models.Property) [][2]string {
	rows := [][2]string{
		{"Expected price", fmt.Sprintf("%.2f", p.ExpectedPrice)},
	}
	if p.PropertyType != nil {
		rows = append(rows, [2]string{"Type", p.PropertyType.Name})
	}
	rows = append(rows,
		[2]string{"Status", strings.ReplaceAll(string(p.State), "_", " ")},
		[2]string{"Bedrooms", fmt.Sprintf("%d", p.Bedrooms)},
		[2]string{"Living area", fmt.Sprintf("%d m²", p.LivingArea)},
		[2]string{"Facades", fmt.Sprintf("%d", p.Facades)},
		[2]string{"Garage", yesNo(p.Garage)},
	)
	if p.Garden {
		rows = append(rows, [2]string{"Garden", fmt.Sprintf("%d m² (%s)", p.GardenArea, p.GardenOrientation)})
	}
	rows = append(rows, [2]string{"Total area", fmt.Sprintf("%d m²", p.TotalArea)})
	if day := formatDay(time.Time(p.DateAvailability)); day != "" {
		rows = append(rows, [2]string{"Available from", day})
	}
	if tags := tagNames(p.Tags); tags != "" {
		rows = append(rows, [2]string{"Tags", tags})
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
