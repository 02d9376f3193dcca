package extract

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-remit-reader/internal/claims"
	"github.com/a3tai/mcp-remit-reader/internal/export"
	"github.com/a3tai/mcp-remit-reader/internal/logging"
	"github.com/a3tai/mcp-remit-reader/internal/metrics"
	"github.com/a3tai/mcp-remit-reader/internal/pdf"
	"github.com/a3tai/mcp-remit-reader/internal/pdf/pdftest"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return NewService(1024*1024, opts...)
}

func TestExtractFile_Remittance(t *testing.T) {
	path := pdftest.Write(t, "remit.pdf", pdftest.Remittance())
	m := metrics.New()
	svc := newTestService(t, WithMetrics(m))

	rep, err := svc.ExtractFile(context.Background(), path)
	require.NoError(t, err)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, path, rep.Path)
	require.Len(t, rep.Records, 1)

	rec := rep.Records[0]
	assert.Equal(t, "DOE JOHN", rec.PatientName)
	assert.Equal(t, "555001", rec.PatientID)
	assert.Equal(t, "20240001", rec.ClaimNumber)
	assert.Equal(t, "OR1", rec.OrigRefNum)
	assert.Equal(t, "PAID", rec.ClaimStatus)
	assert.Equal(t, "ACME CLINIC", rec.Payee)
	assert.Equal(t, "01/15/24", rec.DateOfService)
	assert.Equal(t, "99213,85025", rec.ServiceCode)
	assert.Equal(t, "25", rec.Modifier)

	assert.Equal(t, 1, rep.Stats.Pages)
	assert.Equal(t, "180", rep.Summary.ChargeTotal.String())
	assert.Equal(t, "120", rep.Summary.PaymentTotal.String())

	count, err := testutil.GatherAndCount(m.Registry(), "remit_records_total", "remit_documents_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP remit_records_total Claim records extracted.
# TYPE remit_records_total counter
remit_records_total 1
`), "remit_records_total"))
}

func TestExtractFile_Guarded(t *testing.T) {
	path := pdftest.Write(t, "remit.pdf", pdftest.Remittance())
	guard, err := pdf.NewDirectoryGuard(filepath.Dir(path))
	require.NoError(t, err)
	svc := newTestService(t, WithGuard(guard))

	rep, err := svc.ExtractFile(context.Background(), "remit.pdf")
	require.NoError(t, err)
	assert.Len(t, rep.Records, 1)
	assert.Equal(t, filepath.Dir(path), svc.Root())

	_, err = svc.ExtractFile(context.Background(), "../outside.pdf")
	assert.ErrorIs(t, err, pdf.ErrOutsideDirectory)
}

func TestExtractFile_Rejected(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t)

	notPDF := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(notPDF, []byte("plain text"), 0o600))
	_, err := svc.ExtractFile(context.Background(), notPDF)
	assert.ErrorIs(t, err, pdf.ErrNotPDF)

	_, err = svc.ExtractFile(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.ErrorContains(t, err, "does not exist")

	_, err = svc.ExtractFile(context.Background(), "")
	assert.Error(t, err)
}

func TestExtractFile_Canceled(t *testing.T) {
	path := pdftest.Write(t, "remit.pdf", pdftest.Remittance())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(t).ExtractFile(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractFile_NoPatientBlocks(t *testing.T) {
	path := pdftest.Write(t, "blank.pdf", [][]pdftest.Line{{pdftest.At(20, 40, "REMITTANCE ADVICE")}})

	rep, err := newTestService(t).ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.NotNil(t, rep.Records)
	assert.Empty(t, rep.Records)
	assert.Equal(t, -1, rep.Stats.ProfilePage)
}

func TestExtractReader(t *testing.T) {
	tmp := t.TempDir()
	svc := newTestService(t, WithTempDir(tmp))

	rep, err := svc.ExtractReader(context.Background(), "upload.pdf", bytes.NewReader(pdftest.Generate(pdftest.Remittance())))
	require.NoError(t, err)
	assert.Equal(t, "upload.pdf", rep.Path)
	assert.Len(t, rep.Records, 1)

	leftovers, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExtractReader_Rejected(t *testing.T) {
	tmp := t.TempDir()
	svc := NewService(64, WithLogger(logging.Discard()), WithTempDir(tmp))

	_, err := svc.ExtractReader(context.Background(), "big.pdf", strings.NewReader(strings.Repeat("x", 65)))
	assert.ErrorIs(t, err, pdf.ErrFileTooLarge)

	_, err = svc.ExtractReader(context.Background(), "empty.pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, pdf.ErrEmptyFile)

	_, err = svc.ExtractReader(context.Background(), "text.pdf", strings.NewReader("hello"))
	assert.ErrorIs(t, err, pdf.ErrNotPDF)

	leftovers, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestValidate(t *testing.T) {
	path := pdftest.Write(t, "remit.pdf", pdftest.Remittance())
	svc := newTestService(t)

	res, err := svc.Validate(path)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 1, res.Pages)
}

func TestExport(t *testing.T) {
	svc := newTestService(t)
	rep := &Report{Records: []claims.ClaimRecord{{PatientName: "DOE JOHN"}}}

	var buf bytes.Buffer
	require.NoError(t, svc.Export(&buf, export.FormatCSV, rep))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Patient Name,Patient ID,"))
	assert.True(t, strings.HasPrefix(lines[1], "DOE JOHN,"))
}
