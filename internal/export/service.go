package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/circulars-tracker/internal/repository"
)

// Service is a tiny façade over the repository that produces XLSX bytes for
// circular exports.
type Service struct {
	repo   repository.CircularItemRepository
	logger *slog.Logger
}

func NewService(repo repository.CircularItemRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportRetailerXLSX returns an XLSX workbook of everything currently loaded
// for one retailer.
func (s *Service) ExportRetailerXLSX(ctx context.Context, retailer string) ([]byte, error) {
	start := time.Now()

	items, err := s.repo.List(ctx, retailer, "", 0, 10000)
	if err != nil {
		return nil, fmt.Errorf("query circular items: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Circular Items"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	defaultIndex, _ := f.GetSheetIndex("Sheet1")
	if defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Item",
		"Price",
		"Regular Price",
		"Discount %",
		"Unit",
		"Category",
		"Source",
		"Valid From",
		"Valid Until",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, it := range items {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, it.ItemName)
		write(2, it.Price)
		if it.RegularPrice != nil {
			write(3, *it.RegularPrice)
		}
		if it.DiscountPercent != nil {
			write(4, *it.DiscountPercent)
		}
		write(5, it.Unit)
		if it.Category != nil {
			write(6, *it.Category)
		}
		write(7, it.Source)
		if it.ValidFrom != nil {
			write(8, it.ValidFrom.Format("2006-01-02"))
		}
		if it.ValidUntil != nil {
			write(9, it.ValidUntil.Format("2006-01-02"))
		}

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36) // item name
	_ = f.SetColWidth(sheet, "B", "D", 12) // prices
	_ = f.SetColWidth(sheet, "E", "E", 8)  // unit
	_ = f.SetColWidth(sheet, "F", "F", 22) // category
	_ = f.SetColWidth(sheet, "G", "G", 10) // source
	_ = f.SetColWidth(sheet, "H", "I", 12) // validity

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"retailer", retailer,
		"rows", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
