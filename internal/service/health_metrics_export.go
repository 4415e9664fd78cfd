package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/repository"
)

// healthMetricsExportHeader 导出表头
var healthMetricsExportHeader = []string{
	"ID",
	"Patient Name",
	"Age",
	"Gender",
	"Temperature (C)",
	"Systolic BP",
	"Diastolic BP",
	"Blood Oxygen (%)",
	"Location",
	"State",
	"District",
	"Recorded By",
	"Notes",
	"Timestamp",
}

// Export 生成体征记录导出 Excel 文件
// state 为空时导出全部；单文件上限取 List 的最大分页
func (s *HealthMetricsService) Export(ctx context.Context, state string) ([]byte, error) {
	records, _, err := s.repo.List(ctx, repository.HealthMetricsFilters{State: state}, 1, 10000)
	if err != nil {
		return nil, err
	}
	return generateHealthMetricsExcel(records)
}

func generateHealthMetricsExcel(records []*domain.HealthMetricsRecord) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Health Metrics"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for col, header := range healthMetricsExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, rec := range records {
		row := i + 2
		values := []any{
			rec.ID,
			derefStr(rec.PatientName),
			derefInt(rec.PatientAge),
			derefStr(rec.PatientGender),
			derefFloat(rec.Temperature),
			derefInt(rec.SystolicBP),
			derefInt(rec.DiastolicBP),
			derefFloat(rec.BloodOxygen),
			derefStr(rec.Location),
			derefStr(rec.State),
			derefStr(rec.District),
			rec.RecordedBy,
			derefStr(rec.Notes),
			rec.Timestamp.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			if v == nil {
				continue // 缺省字段留空，不写 0
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func derefStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
