package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gblms/roadmap-service/internal/models"
)

const exportSheet = "Roadmap"

// Export renders the roadmap's module table to an .xlsx workbook and returns
// the file contents plus a suggested filename.
func (s *roadmapService) Export(ctx context.Context, id string) ([]byte, string, error) {
	roadmap, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var modules []models.RoadmapModule
	if len(roadmap.Modules) > 0 {
		if err := json.Unmarshal(roadmap.Modules, &modules); err != nil {
			return nil, "", fmt.Errorf("failed to decode roadmap modules: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, "", err
	}

	// summary block
	summary := [][2]any{
		{"Title", roadmap.Title},
		{"Career goal", roadmap.CareerGoal},
		{"Owner", roadmap.UserID},
		{"Estimated weeks", roadmap.EstimatedWeeks},
		{"Progress", fmt.Sprintf("%.1f%%", roadmap.ProgressPercentage)},
	}
	for i, row := range summary {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetCellValue(exportSheet, cell, row[0]); err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(exportSheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return nil, "", err
		}
	}

	// module table
	headerRow := len(summary) + 2
	headers := []string{"#", "Module", "Difficulty", "Estimated hours", "Skills taught"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, "", err
		}
	}

	for i, module := range modules {
		row := headerRow + 1 + i
		values := []any{
			i + 1,
			module.Title,
			module.Difficulty,
			module.EstimatedHours,
			strings.Join(module.SkillsTaught, ", "),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, "", err
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return nil, "", err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("roadmap-%s.xlsx", roadmap.ID)
	return buf.Bytes(), filename, nil
}
