package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/contract"
	"github.com/thu-intern/contract-generator/internal/models"
)

// SheetName is the worksheet holding the generation log
const SheetName = "生成紀錄"

// XLSXContentType is the MIME type of the exported workbook
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

var headers = []string{"時間", "機構名稱", "學生", "合約類型", "結果", "檔名", "大小 (bytes)", "錯誤訊息", "歸檔路徑", "紀錄編號"}

// column widths, in the order of headers
var columnWidths = []float64{20, 28, 16, 16, 14, 44, 12, 40, 50, 38}

// ExcelExporter writes the generation log as an .xlsx workbook
type ExcelExporter struct {
	location *time.Location
	logger   *zap.Logger
}

// NewExcelExporter creates an exporter printing timestamps in loc (time.Local when nil)
func NewExcelExporter(loc *time.Location, logger *zap.Logger) *ExcelExporter {
	if loc == nil {
		loc = time.Local
	}
	return &ExcelExporter{
		location: loc,
		logger:   logger,
	}
}

// Export returns a workbook with a header row and one row per record, in the given order
func (e *ExcelExporter) Export(records []*models.Generation) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := e.writeHeader(file); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := file.SetSheetRow(SheetName, cell, &[]any{
			rec.CreatedAt.In(e.location).Format(timeLayout),
			rec.CompanyName,
			rec.StudentName,
			contractTypeLabel(rec.ContractType),
			outcomeLabel(rec.Outcome),
			rec.FileName,
			rec.SizeBytes,
			rec.ErrorMessage,
			rec.ArchivePath,
			rec.ID,
		}); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("Generation log exported",
		zap.Int("rows", len(records)),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

func (e *ExcelExporter) writeHeader(file *excelize.File) error {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := file.SetSheetRow(SheetName, "A1", &row); err != nil {
		return err
	}

	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return err
	}
	lastCell, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := file.SetCellStyle(SheetName, "A1", lastCell, style); err != nil {
		return err
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := file.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}

	return file.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func contractTypeLabel(s string) string {
	t, err := contract.ParseContractType(s)
	if err != nil {
		return s
	}
	return t.Label()
}

func outcomeLabel(outcome string) string {
	switch outcome {
	case models.OutcomeSuccess:
		return "成功"
	case models.OutcomeValidationError:
		return "資料不完整"
	case models.OutcomeTemplateError:
		return "範本錯誤"
	}
	return outcome
}
