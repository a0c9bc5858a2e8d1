package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/signalcat/internal/catalog"
)

const sheetName = "Changes"

// feedSource is the slice of the catalog the exporter reads.
type feedSource interface {
	RecentChanges(ctx context.Context, limit int) ([]catalog.ChangeFeedItem, error)
}

// Service renders the recent-changes feed as a spreadsheet for offline audit
// review.
type Service struct {
	feed feedSource
}

func NewService(feed feedSource) *Service {
	return &Service{feed: feed}
}

// WriteWorkbook streams an xlsx rendering of the change feed to w.
func (s *Service) WriteWorkbook(ctx context.Context, w io.Writer, limit int) error {
	items, err := s.feed.RecentChanges(ctx, limit)
	if err != nil {
		return fmt.Errorf("load change feed: %w", err)
	}

	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []string{"Entity Type", "Entity ID", "Version", "Operation", "Changed At", "Changed By", "Details", "Hash"}
	for i, header := range headers {
		cell, cellErr := excelize.CoordinatesToCellName(i+1, 1)
		if cellErr != nil {
			return fmt.Errorf("resolve header cell: %w", cellErr)
		}
		if err := file.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for rowIdx, item := range items {
		values := []any{
			item.EntityType,
			item.EntityID,
			item.Version,
			string(item.Operation),
			item.ChangedAt.UTC().Format(time.RFC3339),
			item.ChangedBy,
			strings.Join(item.Details, "; "),
			item.Hash,
		}
		for colIdx, value := range values {
			cell, cellErr := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if cellErr != nil {
				return fmt.Errorf("resolve cell: %w", cellErr)
			}
			if err := file.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", rowIdx+2, err)
			}
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName derives the attachment name from the export moment.
func FileName(now time.Time) string {
	return fmt.Sprintf("change-feed-%s.xlsx", now.UTC().Format("20060102-150405"))
}
