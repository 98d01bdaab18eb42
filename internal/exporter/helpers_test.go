package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricecharts/internal/dataprocessing"
)

// priceTable is a small cleaned market table
func priceTable(t *testing.T) *dataprocessing.Table {
	t.Helper()
	day := func(d int) dataprocessing.Value {
		return dataprocessing.TimeValue(time.Date(2016, time.September, d, 0, 0, 0, 0, time.UTC))
	}
	table := dataprocessing.NewTable([]dataprocessing.Column{
		{Name: "Date", Type: dataprocessing.TypeTime},
		{Name: "City Name", Type: dataprocessing.TypeString},
		{Name: "Variety", Type: dataprocessing.TypeString},
		{Name: "Low Price", Type: dataprocessing.TypeNumber},
	})
	rows := [][]dataprocessing.Value{
		{day(24), dataprocessing.StringValue("BOSTON"), dataprocessing.StringValue("HOWDEN TYPE"), dataprocessing.NumberValue(130)},
		{day(24), dataprocessing.StringValue("BOSTON"), dataprocessing.StringValue("HOWDEN TYPE"), dataprocessing.NumberValue(140)},
		{day(25), dataprocessing.StringValue("NEW YORK"), dataprocessing.StringValue("HOWDEN TYPE"), dataprocessing.NumberValue(150.5)},
		{day(25), dataprocessing.StringValue("NEW YORK"), dataprocessing.StringValue("PIE TYPE"), dataprocessing.Missing(dataprocessing.TypeNumber)},
	}
	for _, row := range rows {
		require.NoError(t, table.AppendRow(row))
	}
	return table
}
