package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ilgcli/internal/config"
	apperrors "ilgcli/internal/errors"
	"ilgcli/internal/exporter"
	"ilgcli/internal/infrastructure"
	"ilgcli/internal/shared/testutil"
	"ilgcli/internal/storage"
	"ilgcli/internal/validation"
)

var fixedNow = time.Date(2025, 3, 7, 9, 5, 2, 0, time.Local)

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Paths.Root = root
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) *LeadExportService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	svc, err := NewLeadExportService(cfg, nil, logger)
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func exportsEntries(t *testing.T, root string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, "exports"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestLeadExportService_AcmeExample(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()

	svc := newTestService(t, testConfig(root))
	result, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count)
	assert.Equal(t, filepath.Join(root, "exports", "leads_20250307_090502.csv"), result.Path)
	assert.Equal(t, config.FormatCSV, result.Format)

	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	expected := "tier,composite_score,first_name,last_name,title,email,linkedin_url,is_decision_maker," +
		"org_name,org_website,state,city,org_fit_score,signal_score,role_score,scored_at\r\n" +
		"A,92.5,Jane,Doe,Practice Owner,jane@acme.example,https://linkedin.com/in/janedoe,1," +
		"Acme,https://acme.example,CA,San Jose,0.8,88.0,95.0,2025-01-15 10:30:00\r\n"
	assert.Equal(t, expected, string(content))
}

func TestLeadExportService_CategoryFilter(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.AddLead("dental", 80, "A")
	fixture.AddLead("dental", 55, "C")
	fixture.AddLead("legal", 90, "A")

	tests := []struct {
		category  string
		wantCount int
		wantName  string
	}{
		{"", 3, "leads_20250307_090502.csv"},
		{"dental", 2, "leads_dental_20250307_090502.csv"},
		{"legal", 1, "leads_legal_20250307_090502.csv"},
	}

	svc := newTestService(t, testConfig(root))
	for _, tt := range tests {
		t.Run("category="+tt.category, func(t *testing.T) {
			result, err := svc.Export(context.Background(), validation.ExportRequest{Category: tt.category})
			require.NoError(t, err)

			assert.Equal(t, tt.wantCount, result.Count)
			assert.Equal(t, tt.wantName, filepath.Base(result.Path))

			records := readCSV(t, result.Path)
			assert.Len(t, records, tt.wantCount+1)
			assert.Equal(t, exporter.LeadHeaders, records[0])
		})
	}
}

func TestLeadExportService_RowsOrderedByScore(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	for _, score := range []float64{12, 99.5, 47.25, 99.5, 0, 63} {
		fixture.AddLead("dental", score, "B")
	}

	svc := newTestService(t, testConfig(root))
	result, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.NoError(t, err)

	records := readCSV(t, result.Path)
	require.Len(t, records, 7)

	prev := 0.0
	for i, record := range records[1:] {
		score, err := strconv.ParseFloat(record[1], 64)
		require.NoError(t, err)
		if i > 0 {
			assert.LessOrEqual(t, score, prev, "row %d", i+1)
		}
		prev = score
	}
}

func TestLeadExportService_InnerJoinCount(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.AddLead("dental", 70, "B")
	fixture.AddLead("dental", 65, "B")
	fixture.AddLeadScore(testutil.LeadScore{ContactID: 4242, VerticalID: "dental", CompositeScore: 99, Tier: "A"})
	orphan := fixture.AddContact(testutil.Contact{OrgID: 4242, FirstName: "Lost"})
	fixture.AddLeadScore(testutil.LeadScore{ContactID: orphan, VerticalID: "dental", CompositeScore: 98, Tier: "A"})

	svc := newTestService(t, testConfig(root))
	result, err := svc.Export(context.Background(), validation.ExportRequest{Category: "dental"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Len(t, readCSV(t, result.Path), 3)
}

func TestLeadExportService_ExportsDirIdempotent(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()

	svc := newTestService(t, testConfig(root))

	first, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.NoError(t, err)

	svc.now = func() time.Time { return fixedNow.Add(time.Second) }
	second, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Len(t, exportsEntries(t, root), 2)
}

func TestLeadExportService_SameSecondLastWriterWins(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()

	svc := newTestService(t, testConfig(root))

	first, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.NoError(t, err)
	fixture.AddLead("dental", 10, "C")
	second, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.Len(t, readCSV(t, second.Path), 3)
}

func TestLeadExportService_ZeroRows(t *testing.T) {
	tests := []struct {
		name      string
		streaming bool
	}{
		{"streaming", true},
		{"materialized", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			fixture := testutil.NewLeadsDBInRoot(t, root)
			fixture.AddLead("legal", 80, "A")

			cfg := testConfig(root)
			cfg.Export.Streaming = tt.streaming
			svc := newTestService(t, cfg)

			result, err := svc.Export(context.Background(), validation.ExportRequest{Category: "dental"})
			require.NoError(t, err)

			assert.Equal(t, 0, result.Count)
			assert.Empty(t, result.Path)
			assert.Empty(t, exportsEntries(t, root))

			// exports directory still exists
			info, err := os.Stat(filepath.Join(root, "exports"))
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		})
	}
}

func TestLeadExportService_ZeroRowsExplicitPath(t *testing.T) {
	root := t.TempDir()
	testutil.NewLeadsDBInRoot(t, root)

	out := filepath.Join(t.TempDir(), "out", "leads.csv")
	svc := newTestService(t, testConfig(root))

	result, err := svc.Export(context.Background(), validation.ExportRequest{OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestLeadExportService_MissingDatabase(t *testing.T) {
	root := t.TempDir()
	svc := newTestService(t, testConfig(root))

	result, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.Error(t, err)
	assert.Nil(t, result)

	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, filepath.Join(root, "db", "ilg.db"), apperrors.PathOf(err))
	assert.Equal(t, apperrors.ExitError, apperrors.ExitCode(err))

	// fails before touching the exports directory or creating the database
	assert.Nil(t, exportsEntries(t, root))
	_, statErr := os.Stat(filepath.Join(root, "db", "ilg.db"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLeadExportService_InvalidRequest(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()

	svc := newTestService(t, testConfig(root))
	_, err := svc.Export(context.Background(), validation.ExportRequest{Category: "../escape"})
	require.Error(t, err)

	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
	assert.Equal(t, apperrors.ExitUsage, apperrors.ExitCode(err))
	assert.Nil(t, exportsEntries(t, root))
}

func TestLeadExportService_ExplicitOutputPath(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()

	out := filepath.Join(t.TempDir(), "reports", "q1", "acme.csv")
	svc := newTestService(t, testConfig(root))

	result, err := svc.Export(context.Background(), validation.ExportRequest{OutputPath: out})
	require.NoError(t, err)

	assert.Equal(t, out, result.Path)
	assert.Len(t, readCSV(t, out), 2)

	// exports directory is still ensured but stays empty
	assert.Empty(t, exportsEntries(t, root))
}

func TestLeadExportService_MaterializedMatchesStreaming(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()
	fixture.AddLead("dental", 71.25, "B")
	fixture.Exec(`INSERT INTO organizations (id, name) VALUES (900, 'Sparse')`)
	fixture.Exec(`INSERT INTO contacts (id, org_id) VALUES (900, 900)`)
	fixture.Exec(`INSERT INTO lead_scores (contact_id, composite_score) VALUES (900, 5)`)

	outputs := make(map[bool][]byte)
	for _, streaming := range []bool{true, false} {
		cfg := testConfig(root)
		cfg.Export.Streaming = streaming
		svc := newTestService(t, cfg)

		out := filepath.Join(t.TempDir(), "leads.csv")
		result, err := svc.Export(context.Background(), validation.ExportRequest{OutputPath: out})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Count)

		content, err := os.ReadFile(out)
		require.NoError(t, err)
		outputs[streaming] = content
	}

	assert.Equal(t, string(outputs[true]), string(outputs[false]))
}

func TestLeadExportService_XLSX(t *testing.T) {
	tests := []struct {
		name   string
		format string
		output string
	}{
		{name: "configured format", format: config.FormatXLSX},
		{name: "output extension", format: config.FormatCSV, output: "leads.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			fixture := testutil.NewLeadsDBInRoot(t, root)
			fixture.SeedAcme()

			cfg := testConfig(root)
			cfg.Export.Format = tt.format
			svc := newTestService(t, cfg)

			req := validation.ExportRequest{}
			if tt.output != "" {
				req.OutputPath = filepath.Join(root, tt.output)
			}

			result, err := svc.Export(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, config.FormatXLSX, result.Format)

			f, err := excelize.OpenFile(result.Path)
			require.NoError(t, err)
			defer f.Close()

			rows, err := f.GetRows(exporter.SheetName)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, exporter.LeadHeaders, rows[0])
			assert.Equal(t, "Jane", rows[1][2])
		})
	}
}

func TestLeadExportService_StorageError(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.Exec(`DROP TABLE organizations`)

	svc := newTestService(t, testConfig(root))
	_, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.Error(t, err)

	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "organizations")
	assert.Empty(t, exportsEntries(t, root))
}

// failAfterSink fails every write after the first n
type failAfterSink struct {
	exporter.LeadSink
	n int
}

func (f *failAfterSink) Write(l storage.Lead) error {
	if f.Rows() >= f.n {
		return errors.New("no space left on device")
	}
	return f.LeadSink.Write(l)
}

func TestLeadExportService_MidStreamFailureRemovesFile(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()
	fixture.AddLead("dental", 10, "C")

	svc := newTestService(t, testConfig(root))
	svc.newSink = func(path string, opts exporter.CSVOptions, logger *slog.Logger) (exporter.LeadSink, error) {
		sink, err := exporter.OpenSink(path, opts, logger)
		if err != nil {
			return nil, err
		}
		return &failAfterSink{LeadSink: sink, n: 1}, nil
	}

	_, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.Error(t, err)

	assert.Equal(t, apperrors.ErrTypeFileSystem, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "no space left on device")
	assert.Empty(t, exportsEntries(t, root))
}

func TestLeadExportService_OffTypeValuesExported(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()
	fixture.Exec(`UPDATE contacts SET is_decision_maker = 2`)
	fixture.Exec(`UPDATE lead_scores SET signal_score = 'pending'`)

	svc := newTestService(t, testConfig(root))
	result, err := svc.Export(context.Background(), validation.ExportRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)

	records := readCSV(t, result.Path)
	require.Len(t, records, 2)
	assert.Equal(t, "2", records[1][7])
	assert.Equal(t, "pending", records[1][13])
	assert.Equal(t, "92.5", records[1][1])
}

func TestLeadExportService_Logging(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()

	logger, handler := testutil.NewTestLogger(t)
	svc, err := NewLeadExportService(testConfig(root), nil, logger)
	require.NoError(t, err)

	ctx := infrastructure.WithTraceID(context.Background(), "run-1")
	_, err = svc.Export(ctx, validation.ExportRequest{Category: "dental"})
	require.NoError(t, err)

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Lead export completed")
	testutil.AssertLogAttr(t, handler, "rows", int64(1))
	testutil.AssertLogAttr(t, handler, "category", "dental")
	testutil.AssertNoErrors(t, handler)
}

func TestLeadExportService_Telemetry(t *testing.T) {
	root := t.TempDir()
	fixture := testutil.NewLeadsDBInRoot(t, root)
	fixture.SeedAcme()

	metricsFile := filepath.Join(root, "ilg.prom")
	var spans bytes.Buffer
	tel, err := infrastructure.InitializeTelemetry(config.TelemetryConfig{
		Tracing:       true,
		TraceExporter: "stdout",
		Metrics:       true,
		MetricsFile:   metricsFile,
	}, &spans, slog.Default())
	require.NoError(t, err)

	svc, err := NewLeadExportService(testConfig(root), tel, slog.Default())
	require.NoError(t, err)

	_, err = svc.Export(context.Background(), validation.ExportRequest{})
	require.NoError(t, err)
	_, err = svc.Export(context.Background(), validation.ExportRequest{Category: "none"})
	require.NoError(t, err)

	require.NoError(t, tel.Shutdown(context.Background()))

	assert.Contains(t, spans.String(), "export_leads")
	assert.Contains(t, spans.String(), "lead.outcome")

	content, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `outcome="exported"`)
	assert.Contains(t, string(content), `outcome="empty"`)
}
