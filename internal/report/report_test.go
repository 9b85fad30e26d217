package report

import (
	"testing"
	"time"

	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parsedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)

func fixtureClients() *models.OrderedMap[*models.ClientMarginAnalysis] {
	all := models.NewOrderedMap[*models.ClientMarginAnalysis]()

	a := models.NewClientMarginAnalysis("0001", "Rossi", parsedAt, 0)
	a.AddProduct(models.NewClientMappedProduct("GA091", "Gadget", "0001", 2, 0, 100, parsedAt))
	a.AddProduct(models.NewClientMappedProduct("XX001", "Other", "0001", 1, 30, 50, parsedAt))
	all.Set(a.ID, a)

	b := models.NewClientMarginAnalysis("0002", "Bianchi", parsedAt, 0)
	b.AddProduct(models.NewClientMappedProduct("XX001", "Other", "0002", 1, 30, 40, parsedAt))
	all.Set(b.ID, b)

	return all
}

func TestNewConfig(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.Local)
	nop := zerolog.Nop()

	t.Run("valid ids are sanitized and deduplicated", func(t *testing.T) {
		cfg, err := NewConfig(Request{ClientIDs: []string{"C0001", "0001", "bad-id", "F/0002"}, Options: &Options{DetailedView: true}}, now, nop)
		require.NoError(t, err)
		assert.Equal(t, []string{"0001", "0002"}, cfg.ClientIDs)
		assert.True(t, cfg.Options.DetailedView)
		assert.False(t, cfg.Options.FlagAnomalies)
		assert.Equal(t, now, cfg.CreatedAt)
	})

	t.Run("empty ids", func(t *testing.T) {
		_, err := NewConfig(Request{Options: &Options{}}, now, nop)
		assert.ErrorIs(t, err, models.ErrInvalidRequest)
	})

	t.Run("missing options", func(t *testing.T) {
		_, err := NewConfig(Request{ClientIDs: []string{"0001"}}, now, nop)
		assert.ErrorIs(t, err, models.ErrInvalidRequest)
	})

	t.Run("no valid id", func(t *testing.T) {
		_, err := NewConfig(Request{ClientIDs: []string{"abc", "123456"}, Options: &Options{}}, now, nop)
		assert.ErrorIs(t, err, models.ErrNoValidID)
	})
}

func TestConfigSelect(t *testing.T) {
	cfg := &Config{ClientIDs: []string{"0002", "0009"}}
	selected := cfg.Select(fixtureClients())

	assert.Equal(t, []string{"0002"}, selected.Keys())
}

func TestEnrichEmpty(t *testing.T) {
	_, err := NewEngine(nil).Enrich(models.NewOrderedMap[*models.ClientMarginAnalysis](), Options{})
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	clients := fixtureClients()

	report, err := NewEngine(nil).Enrich(clients, Options{DetailedView: true, FlagAnomalies: true})
	require.NoError(t, err)

	flagged, _ := report.Clients[0].Products.Get("GA091")
	assert.True(t, flagged.HasAnomaly)
	assert.Equal(t, "Prodotto interno con costo fisso manuale di 0.00€", flagged.AnomalyText)
	assert.Len(t, report.Clients[0].ProductDetails, 2)

	original, _ := clients.Values()[0].Products.Get("GA091")
	assert.False(t, original.HasAnomaly)
	assert.Empty(t, original.AnomalyText)
}

func TestReportTable(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("summary without anomalies", func(t *testing.T) {
		report, err := engine.Enrich(fixtureClients(), Options{})
		require.NoError(t, err)

		header, rows, hints := report.Table()
		assert.Equal(t, []string{HeaderClientID, HeaderClientMargin}, header)
		assert.Equal(t, [][]interface{}{{"0001", 120.0}, {"0002", 10.0}}, rows)
		assert.Equal(t, -1, hints.HighlightColumn)
		assert.Empty(t, hints.HighlightRows)
	})

	t.Run("summary with anomalies", func(t *testing.T) {
		report, err := engine.Enrich(fixtureClients(), Options{FlagAnomalies: true})
		require.NoError(t, err)

		header, rows, hints := report.Table()
		assert.Equal(t, []string{HeaderClientID, HeaderClientMargin, HeaderAnomaly}, header)
		require.Len(t, rows, 2)
		assert.Equal(t, "Prodotto interno con costo fisso manuale di 0.00€", rows[0][2])
		assert.Equal(t, "", rows[1][2])
		assert.Equal(t, []int{0}, hints.HighlightRows)
		assert.Equal(t, 2, hints.HighlightColumn)
	})

	t.Run("detailed with anomalies", func(t *testing.T) {
		report, err := engine.Enrich(fixtureClients(), Options{DetailedView: true, FlagAnomalies: true})
		require.NoError(t, err)

		header, rows, hints := report.Table()
		assert.Equal(t, []string{HeaderClientID, HeaderClientMargin, HeaderProductID, HeaderProductMargin, HeaderAnomaly}, header)
		require.Len(t, rows, 3)
		assert.Equal(t, []interface{}{"0001", 120.0, "XX001", 20.0, ""}, rows[1])
		assert.Equal(t, []interface{}{"0002", 10.0, "XX001", 10.0, ""}, rows[2])
		assert.True(t, hints.IsHighlighted(0))
		assert.False(t, hints.IsHighlighted(1))
		assert.True(t, hints.HeaderEmphasis)
		assert.True(t, hints.FreezeHeader)
	})
}

func TestLoadRegistry(t *testing.T) {
	table := &tabular.Table{
		Header: []string{"Categoria", "UUID", "Costo", "Testo"},
		Rows: [][]interface{}{
			{"INTERNAL_PRODUCTION", "ga091", "12,50", ""},
			{"UNKNOWN_PRICE", "ZZ100", "", "Prezzo da verificare"},
			{"WHATEVER", "ZZ200", "", ""},
		},
	}

	registry, skipped, err := LoadRegistry(table, DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	a, ok := registry.Lookup("GA091")
	require.True(t, ok)
	assert.Equal(t, "Prodotto interno con costo fisso manuale di 12.50€", a.Explanation())

	a, ok = registry.Lookup("zz100")
	require.True(t, ok)
	assert.Equal(t, "Prezzo da verificare", a.Explanation())

	_, ok = registry.Lookup("CP009")
	assert.True(t, ok)
	assert.Equal(t, 11, registry.Len())
}

func TestLoadRegistryMissingColumn(t *testing.T) {
	_, _, err := LoadRegistry(&tabular.Table{Header: []string{"UUID"}}, nil)
	assert.ErrorIs(t, err, models.ErrMissingColumn)
}
