package product

import (
	"context"
	"io"

	"github.com/tealeg/xlsx"

	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
)

// ExportContentType is the MIME type of the spreadsheet export.
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{
	"ID", "Name", "Slug", "Category", "Brand", "Price", "Stock", "Rating", "NumReviews", "IsFeatured", "CreatedAt",
}

// Export writes every product as an xlsx workbook.
func (s *service) Export(ctx context.Context, w io.Writer) error {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sheet")
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID.String())
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Slug)
		row.AddCell().SetString(p.Category)
		row.AddCell().SetString(p.Brand)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(p.Rating.StringFixed(2))
		row.AddCell().SetInt(p.NumReviews)
		row.AddCell().SetBool(p.IsFeatured)
		row.AddCell().SetString(p.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write workbook")
	}
	return nil
}
