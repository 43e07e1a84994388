package ledger_test

import (
	"testing"

	"github.com/boddenberg/trading-dashboard-bfa/internal/domain"
	"github.com/boddenberg/trading-dashboard-bfa/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartSeries_SeedsFromEarlierTrades(t *testing.T) {
	var records []domain.TransactionLog
	// Nine trades of +10 at 09:00..17:00, fed newest first.
	for h := 17; h >= 9; h-- {
		records = append(records, logAt(string(rune('a'+h)), at(2024, 6, 15, h, 0), "10"))
	}

	points := ledger.ChartSeries(records, dec("1000"), wib)

	require.Len(t, points, ledger.ChartPoints)
	assert.Equal(t, "11:00", points[0].Label)
	assert.True(t, points[0].Balance.Equal(dec("1030")), "got %s", points[0].Balance)
	assert.Equal(t, "17:00", points[6].Label)
	assert.True(t, points[6].Balance.Equal(dec("1090")), "got %s", points[6].Balance)
}

func TestChartSeries_FewerThanSevenTrades(t *testing.T) {
	records := []domain.TransactionLog{
		logAt("b", at(2024, 6, 15, 10, 30), "-25.50"),
		logAt("a", at(2024, 6, 15, 9, 5), "100.25"),
	}

	points := ledger.ChartSeries(records, dec("500"), wib)

	require.Len(t, points, 2)
	assert.Equal(t, "09:05", points[0].Label)
	assert.True(t, points[0].Balance.Equal(dec("600.25")))
	assert.Equal(t, "10:30", points[1].Label)
	assert.True(t, points[1].Balance.Equal(dec("574.75")))
}

func TestChartSeries_LabelsUseLocation(t *testing.T) {
	records := []domain.TransactionLog{logAt("a", at(2024, 6, 15, 9, 0), "1")}

	points := ledger.ChartSeries(records, dec("0"), wib)
	require.Len(t, points, 1)
	assert.Equal(t, "09:00", points[0].Label)
}

func TestChartSeries_Empty(t *testing.T) {
	points := ledger.ChartSeries(nil, dec("100"), wib)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}
