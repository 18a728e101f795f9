package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/apexmach/erp-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService renders reports and listings into downloadable files
type ExportService struct {
	reportSvc   *ReportService
	projectRepo repository.ProjectRepository
	machineRepo repository.MachineRepository
}

// NewExportService creates a new export service
func NewExportService(reportSvc *ReportService, projectRepo repository.ProjectRepository, machineRepo repository.MachineRepository) *ExportService {
	return &ExportService{
		reportSvc:   reportSvc,
		projectRepo: projectRepo,
		machineRepo: machineRepo,
	}
}

// ExportDashboardCSV renders the dashboard overview as CSV
func (s *ExportService) ExportDashboardCSV(ctx context.Context) ([]byte, string, error) {
	overview, err := s.reportSvc.GetDashboard(ctx)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"经营看板", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"交付概览"})
	_ = writer.Write([]string{"指标", "数值"})
	_ = writer.Write([]string{"项目总数", fmt.Sprintf("%d", overview.TotalProjects)})
	_ = writer.Write([]string{"受阻项目", fmt.Sprintf("%d", overview.BlockedProjects)})
	_ = writer.Write([]string{"机台总数", fmt.Sprintf("%d", overview.TotalMachines)})
	_ = writer.Write([]string{"终验收机台", fmt.Sprintf("%d", overview.CompletedMachines)})
	_ = writer.Write([]string{"平均项目进度", overview.AvgProjectProgress.StringFixed(2) + "%"})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"销售与回款"})
	_ = writer.Write([]string{"指标", "数值"})
	_ = writer.Write([]string{"进行中线索", fmt.Sprintf("%d", overview.OpenLeads)})
	_ = writer.Write([]string{"进行中商机", fmt.Sprintf("%d", overview.OpenOpportunities)})
	_ = writer.Write([]string{"待审批合同", fmt.Sprintf("%d", overview.PendingContracts)})
	_ = writer.Write([]string{"生效合同", fmt.Sprintf("%d", overview.ActiveContracts)})
	_ = writer.Write([]string{"合同总额", overview.TotalContracted.StringFixed(2)})
	_ = writer.Write([]string{"已开票", overview.TotalInvoiced.StringFixed(2)})
	_ = writer.Write([]string{"已回款", overview.TotalCollected.StringFixed(2)})
	_ = writer.Write([]string{"逾期发票", fmt.Sprintf("%d", overview.OverdueInvoices)})
	_ = writer.Write([]string{"逾期金额", overview.OverdueAmount.StringFixed(2)})

	writer.Flush()

	filename := fmt.Sprintf("dashboard_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportProjectsXLSX renders the project portfolio with machine detail
// as a spreadsheet, one row per project.
func (s *ExportService) ExportProjectsXLSX(ctx context.Context) ([]byte, string, error) {
	query := repository.NewListQuery()
	query.PerPage = 1000
	projects, _, err := s.projectRepo.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Projects"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"项目编号", "项目名称", "阶段", "健康度", "进度%", "机台数", "预算", "实际成本", "合同额"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, project := range projects {
		machines, err := s.machineRepo.FindByProject(ctx, project.ID)
		if err != nil {
			return nil, "", err
		}

		values := []interface{}{
			project.ProjectCode,
			project.Name,
			project.Stage,
			project.Health,
			project.ProgressPct.StringFixed(2),
			len(machines),
			project.BudgetAmount.StringFixed(2),
			project.ActualCost.StringFixed(2),
			project.ContractAmount.StringFixed(2),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("projects_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportReceivablesXLSX renders the contract receivables report
func (s *ExportService) ExportReceivablesXLSX(ctx context.Context) ([]byte, string, error) {
	rows, err := s.reportSvc.GetReceivables(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Receivables"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"合同编号", "客户", "合同额", "已开票", "已回款", "应收余额"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, row := range rows {
		values := []interface{}{
			row.ContractCode,
			row.CustomerName,
			row.ContractAmount.StringFixed(2),
			row.InvoicedAmount.StringFixed(2),
			row.PaidAmount.StringFixed(2),
			row.OpenAmount.StringFixed(2),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("receivables_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportMachinesCSV renders one project's machine list as CSV
func (s *ExportService) ExportMachinesCSV(ctx context.Context, projectID uint) ([]byte, string, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, "", ErrNotFound
	}
	machines, err := s.machineRepo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"机台编号", "名称", "阶段", "健康度", "进度%"})
	for _, m := range machines {
		_ = writer.Write([]string{
			m.MachineCode,
			m.Name,
			m.Stage,
			m.Health,
			m.ProgressPct.StringFixed(2),
		})
	}

	writer.Flush()

	filename := fmt.Sprintf("machines_%s.csv", project.ProjectCode)
	return buf.Bytes(), filename, nil
}
