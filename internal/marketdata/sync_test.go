package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcase/frontier/internal/database"
	"github.com/quantcase/frontier/internal/history"
)

func newTestHistoryStore(t *testing.T) *history.Store {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "?mode=memory&cache=shared",
		Profile: database.ProfileStandard,
		Name:    "prices-test",
		Schema:  history.Schema,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return history.NewStore(db.Conn(), zerolog.Nop())
}

func TestSyncer_Sync(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(
			[]int64{base, base + day},
			[]float64{100, 101},
			[]float64{99.5, 100.5},
		))
	})

	store := newTestHistoryStore(t)
	syncer := NewSyncer(client, store, zerolog.Nop())

	counts, err := syncer.Sync(context.Background(), []string{"AAPL", "MSFT"},
		time.Unix(base, 0), time.Unix(base+2*day, 0))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"AAPL": 2, "MSFT": 2}, counts)

	prices, err := store.GetPrices("AAPL", "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "2024-01-02", prices[0].Date)
	assert.Equal(t, 99.5, prices[0].AdjClose)
}

func TestSyncer_FailsOnMissingSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})

	syncer := NewSyncer(client, newTestHistoryStore(t), zerolog.Nop())

	_, err := syncer.Sync(context.Background(), []string{"ZZZZ"},
		time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to sync ZZZZ")
}
