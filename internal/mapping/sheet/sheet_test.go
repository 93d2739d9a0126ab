package sheet_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/internal/mapping/sheet"
	"github.com/smallbiznis/checkmapper/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newSheet(t *testing.T, app *testkit.App) *sheet.Sheet {
	t.Helper()
	return sheet.New(sheet.Params{Log: app.Log, MappingSvc: app.Mappings, TenantSvc: app.Tenants})
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestExportWritesSortedRows(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	app.Demo(t)

	data, err := newSheet(t, app).Export(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Sender Name", "Tenant"}, rows[0])
	assert.Equal(t, []string{"Bruce Wayne", "Wayne Enterprises"}, rows[1])
	assert.Equal(t, []string{"Tony Stark", "Stark Industries"}, rows[4])
	assert.Equal(t, []string{"Wayne Foundation", "Wayne Enterprises"}, rows[5])
}

func TestImportCreatesSkipsAndReportsRows(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	tenants := app.Demo(t)

	buf := workbook(t, [][]any{
		{"Sender Name", "Tenant"},
		{"Tony Stark", "Stark Industries"},
		{"Pepper Potts", "stark industries"},
		{"", ""},
		{"Lucius Fox", "Wayne Enterprises"},
		{"Hans Gruber", "Nakatomi Trading"},
		{"", "Cyberdyne Systems"},
	})

	result, err := newSheet(t, app).Import(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 6, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "Nakatomi Trading")
	assert.Equal(t, 7, result.Errors[1].Row)

	pepper, err := app.Mappings.FindBySender(context.Background(), "pepper potts")
	require.NoError(t, err)
	require.Len(t, pepper, 1)
	assert.Equal(t, tenants["Stark Industries"].ID, pepper[0].TenantID)

	all, err := app.Mappings.List(context.Background(), domain.ListMappingRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Mappings, 7)
}

func TestImportRejectsBadWorkbooks(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	s := newSheet(t, app)

	_, err := s.Import(context.Background(), bytes.NewReader([]byte("not a workbook")))
	assert.ErrorIs(t, err, sheet.ErrInvalidWorkbook)

	_, err = s.Import(context.Background(), workbook(t, [][]any{{"Name", "Customer"}}))
	assert.ErrorIs(t, err, sheet.ErrInvalidHeader)
}
