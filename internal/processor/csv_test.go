package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryRow(t *testing.T) {
	m := fixtureMetrics(t)
	row := m.SummaryRow()

	require.Len(t, row, len(SummaryHeaders))
	assert.Equal(t, []string{
		"2", "0", "10", "5.0", "0.0", "250",
		"34", "10", "0.125", "3500", "500", "0",
		"3.0", "6.0", "3.0",
	}, row)
}

func TestHeightRows(t *testing.T) {
	rows := fixtureMetrics(t).HeightRows()

	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Len(t, row, len(HeightHeaders))
	}
	assert.Equal(t, []string{"2", "0", "10", "5.0", "0.0", "250", "2", "2000", "3.0", "2.0", "1.0", "1.5", "1.0"}, rows[0])
	assert.Equal(t, []string{"2", "0", "10", "5.0", "0.0", "250", "4", "4000", "4.0", "3.0", "1.0", "2.5", "1.0"}, rows[2])
}

func TestHeightRowsWithoutIntervals(t *testing.T) {
	m := fixtureMetrics(t)
	m.Heights[0].TimeByPhase = nanPhases()

	row := m.HeightRows()[0]
	assert.Equal(t, []string{"nan", "nan", "nan"}, row[len(row)-3:])
}

func TestOutputFilenames(t *testing.T) {
	day := time.Date(2024, time.March, 7, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "bench-07-03-2024.csv"), SummaryFilename("out", day))
	assert.Equal(t, filepath.Join("out", "bench-07-03-2024-by-height.csv"), HeightFilename("out", day))
}

func TestAppendCSVWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	header := []string{"A", "B"}

	require.NoError(t, AppendCSV(path, header, [][]string{{"1", "2"}}))
	require.NoError(t, AppendCSV(path, header, [][]string{{"3", "4"}, {"5", "6"}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A,B\r\n1,2\r\n3,4\r\n5,6\r\n", string(raw))
}

func TestWriteCSVs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	day := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	m := fixtureMetrics(t)

	summaryPath, heightPath, err := m.WriteCSVs(dir, day)
	require.NoError(t, err)
	_, _, err = m.WriteCSVs(dir, day)
	require.NoError(t, err)

	summary, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(summary), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(SummaryHeaders, ","), lines[0])
	assert.Equal(t, lines[1], lines[2])

	heights, err := os.ReadFile(heightPath)
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSuffix(string(heights), "\r\n"), "\r\n")
	assert.Len(t, lines, 1+2*3)
	assert.True(t, strings.HasPrefix(lines[0], "Nodes,Faults,Target Block Time,"))
}
