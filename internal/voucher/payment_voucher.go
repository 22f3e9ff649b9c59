// Package voucher renders payment vouchers for paid reimbursements as
// xlsx workbooks, one file per request.
package voucher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jmcandrew/auction-backoffice/internal/domain/entity"
	"github.com/jmcandrew/auction-backoffice/internal/domain/workflow"
)

// Generator writes payment vouchers to the output directory.
type Generator struct {
	outputDir string
	houseName string
	logger    *zap.Logger
}

// NewGenerator creates a new voucher generator.
func NewGenerator(outputDir, houseName string, logger *zap.Logger) *Generator {
	return &Generator{
		outputDir: outputDir,
		houseName: houseName,
		logger:    logger,
	}
}

// Generate writes the voucher for a paid reimbursement and returns the
// file path. Only PAID requests have vouchers; anything else is an error.
func (g *Generator) Generate(req *entity.ReimbursementRequest, history []*entity.ApprovalHistory) (string, error) {
	if req.Status != workflow.StatePaid {
		return "", fmt.Errorf("voucher requires a paid request, status is %s", req.Status)
	}

	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	set := func(cell, value string) {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			g.logger.Warn("Failed to set voucher cell",
				zap.String("cell", cell),
				zap.Error(err))
		}
	}

	set("A1", g.houseName)
	set("A2", "Reimbursement Payment Voucher")
	set("A4", "Voucher No.")
	set("B4", req.ReimbursementNumber)
	set("A5", "Requested By")
	set("B5", req.RequestedBy)
	set("A6", "Category")
	set("B6", string(req.Category))
	set("A7", "Purpose")
	set("B7", req.Purpose)
	set("A8", "Payment Date")
	set("B8", req.PaymentDate.Format("2006-01-02"))

	set("A10", "Gross Amount")
	set("B10", req.TotalAmount.StringFixed(2))
	set("A11", fmt.Sprintf("Tax (%s)", req.TaxRate.String()))
	set("B11", req.TaxAmount.StringFixed(2))
	set("A12", "Net Amount")
	set("B12", req.NetAmount.StringFixed(2))

	set("A14", "Payment Reference")
	set("B14", req.PaymentReference)
	if req.PaidAt != nil {
		set("A15", "Paid At")
		set("B15", req.PaidAt.Format("2006-01-02 15:04"))
	}

	set("A17", "Approval Trail")
	row := 18
	for _, h := range history {
		set(fmt.Sprintf("A%d", row), h.Timestamp.Format("2006-01-02 15:04"))
		set(fmt.Sprintf("B%d", row), h.Action)
		set(fmt.Sprintf("C%d", row), h.Stage)
		set(fmt.Sprintf("D%d", row), h.ActorID)
		set(fmt.Sprintf("E%d", row), h.Comments)
		row++
	}

	outputPath := filepath.Join(g.outputDir, fmt.Sprintf("%s.xlsx", req.ReimbursementNumber))
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save voucher: %w", err)
	}

	g.logger.Info("Payment voucher generated",
		zap.Int64("reimbursement_id", req.ID),
		zap.String("path", outputPath))
	return outputPath, nil
}
