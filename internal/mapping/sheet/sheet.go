// Package sheet exports and imports the mapping table as an XLSX workbook
// with the columns "Sender Name" and "Tenant".
package sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/internal/namekey"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	SheetName     = "Mappings"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerSender  = "Sender Name"
	headerTenant  = "Tenant"
	maxImportRows = 10000
)

var (
	ErrInvalidWorkbook = apperror.Validation("invalid_workbook")
	ErrInvalidHeader   = apperror.Validation("invalid_workbook_header")
)

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created int        `json:"created"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
}

type Params struct {
	fx.In

	Log        *zap.Logger
	MappingSvc domain.Service
	TenantSvc  tenantdomain.Service
}

type Sheet struct {
	log        *zap.Logger
	mappingSvc domain.Service
	tenantSvc  tenantdomain.Service
}

func New(p Params) *Sheet {
	return &Sheet{
		log:        p.Log.Named("mapping.sheet"),
		mappingSvc: p.MappingSvc,
		tenantSvc:  p.TenantSvc,
	}
}

// Export writes every mapping, sorted by sender name.
func (s *Sheet) Export(ctx context.Context) ([]byte, error) {
	mappings, err := s.mappingSvc.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	tenants, err := s.tenantSvc.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(tenants))
	for _, t := range tenants {
		names[t.ID.String()] = t.TenantName
	}
	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].SenderKey < mappings[j].SenderKey
	})

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &[]any{headerSender, headerTenant}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "B1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "B", 32); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	for i, m := range mappings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{m.SenderName, names[m.TenantID.String()]}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Import creates the mappings of r that do not exist yet. Row problems are
// reported per row and do not stop the import.
func (s *Sheet) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, ErrInvalidWorkbook
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{}, ErrInvalidWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{}, ErrInvalidWorkbook
	}
	if len(rows) == 0 {
		return ImportResult{}, ErrInvalidHeader
	}
	if len(rows) > maxImportRows+1 {
		return ImportResult{}, ErrInvalidWorkbook
	}

	senderCol, tenantCol, err := headerColumns(rows[0])
	if err != nil {
		return ImportResult{}, err
	}

	tenants, err := s.tenantSvc.ListAll(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	byKey := make(map[string]tenantdomain.Tenant, len(tenants))
	for _, t := range tenants {
		byKey[t.NameKey] = t
	}

	result := ImportResult{Errors: []RowError{}}
	for i, row := range rows[1:] {
		rowNum := i + 2
		sender := cell(row, senderCol)
		tenantName := cell(row, tenantCol)
		if sender == "" && tenantName == "" {
			continue
		}
		if sender == "" {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: "sender name is required"})
			continue
		}

		tenant, ok := byKey[namekey.Normalize(tenantName)]
		if !ok {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: fmt.Sprintf("unknown tenant %q", tenantName)})
			continue
		}

		existing, err := s.mappingSvc.FindBySender(ctx, sender)
		if err != nil {
			if errors.Is(err, apperror.ErrValidation) {
				result.Errors = append(result.Errors, RowError{Row: rowNum, Message: fmt.Sprintf("invalid sender name %q", sender)})
				continue
			}
			return result, err
		}
		if containsTenant(existing, tenant) {
			result.Skipped++
			continue
		}

		if _, err := s.mappingSvc.Create(ctx, domain.CreateMappingRequest{
			SenderName: sender,
			TenantID:   tenant.ID.String(),
		}); err != nil {
			if apperror.KindOf(err) == apperror.KindStorage {
				return result, err
			}
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Created++
	}

	s.log.Info("mapping sheet imported",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func headerColumns(header []string) (int, int, error) {
	senderCol, tenantCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case strings.ToLower(headerSender):
			senderCol = i
		case strings.ToLower(headerTenant), "tenant name":
			tenantCol = i
		}
	}
	if senderCol < 0 || tenantCol < 0 {
		return 0, 0, ErrInvalidHeader
	}
	return senderCol, tenantCol, nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func containsTenant(mappings []domain.Mapping, tenant tenantdomain.Tenant) bool {
	for _, m := range mappings {
		if m.TenantID == tenant.ID {
			return true
		}
	}
	return false
}
