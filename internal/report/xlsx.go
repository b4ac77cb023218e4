package report

import (
	"fmt"
	"io"
	"time"

	"github.com/tealeg/xlsx"

	"estate/server/internal/models"
)

// XLSXContentType is the MIME type of the spreadsheet export
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var listingHeaders = []string{
	"ID", "Name", "Type", "State", "City", "Postcode", "Expected Price", "Best Offer",
	"Selling Price", "Bedrooms", "Living Area", "Garden Area", "Total Area", "Available From", "Tags",
}

// WritePropertiesXLSX writes the property listing as a single sheet workbook
func WritePropertiesXLSX(w io.Writer, properties []models.Property) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Properties")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	headerStyle.Font = *font
	headerStyle.ApplyFont = true

	header := sheet.AddRow()
	for _, h := range listingHeaders {
		cell := header.AddCell()
		cell.SetString(h)
		cell.SetStyle(headerStyle)
	}

	for _, p := range properties {
		row := sheet.AddRow()
		row.AddCell().SetInt64(p.ID)
		row.AddCell().SetString(p.Name)
		typeName := ""
		if p.PropertyType != nil {
			typeName = p.PropertyType.Name
		}
		row.AddCell().SetString(typeName)
		row.AddCell().SetString(string(p.State))
		row.AddCell().SetString(p.City)
		row.AddCell().SetString(p.Postcode)
		row.AddCell().SetFloatWithFormat(p.ExpectedPrice, "#,##0.00")
		row.AddCell().SetFloatWithFormat(p.BestOffer, "#,##0.00")
		row.AddCell().SetFloatWithFormat(p.SellingPrice, "#,##0.00")
		row.AddCell().SetInt(p.Bedrooms)
		row.AddCell().SetInt(p.LivingArea)
		row.AddCell().SetInt(p.GardenArea)
		row.AddCell().SetInt(p.TotalArea)
		row.AddCell().SetString(formatDay(time.Time(p.DateAvailability)))
		row.AddCell().SetString(tagNames(p.Tags))
	}

	for i := range listingHeaders {
		width := 14.0
		if i == 1 {
			width = 32
		}
		if err := sheet.SetColWidth(i, i, width); err != nil {
			return fmt.Errorf("failed to size column %d: %w", i, err)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func tagNames(tags []models.PropertyTag) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += ", "
		}
		out += t.Name
	}
	return out
}
