package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Study calendar",
		Headers: []string{"date", "lectures", "minutes"},
		Rows: [][]string{
			{"2026-03-02", "s1-l1, s1-l2", "90"},
			{"2026-03-03", "s1-l3", "45"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "date,lectures,minutes\n2026-03-02,\"s1-l1, s1-l2\",90\n2026-03-03,s1-l3,45\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Study calendar", rows[0][0])
	assert.Equal(t, []string{"date", "lectures", "minutes"}, rows[1])
	assert.Equal(t, []string{"2026-03-03", "s1-l3", "45"}, rows[3])
}

func TestRenderersValidate(t *testing.T) {
	bad := Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"only-one"}}}
	for ext, r := range Renderers() {
		_, err := r.Render(Dataset{})
		assert.Error(t, err, ext)
		_, err = r.Render(bad)
		assert.Error(t, err, ext)
	}
	assert.Len(t, Renderers(), 3)
	assert.Equal(t, "text/csv", Renderers()["csv"].ContentType())
}
