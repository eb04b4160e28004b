package sheets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEntries() []model.HistoryEntry {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	return []model.HistoryEntry{
		{ID: "h3", Timestamp: ts.Add(2 * time.Hour), FromCurrency: "IDR", ToCurrency: "RUB", FromAmount: 1000000, ToAmount: 6000, Rate: 0.006, BaseRate: 0.006},
		{ID: "h2", Timestamp: ts.Add(time.Hour), FromCurrency: "IDR", ToCurrency: "RUB", FromAmount: 2000000, ToAmount: 12240, SpreadPercent: 2, Rate: 0.00612, BaseRate: 0.006},
		{ID: "h1", Timestamp: ts, FromCurrency: "IDR", ToCurrency: "RUB", FromAmount: 500000, ToAmount: 3000},
	}
}

func TestHistoryRows(t *testing.T) {
	exported := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := HistoryRows(sampleEntries(), exported)

	require.Len(t, rows, 10)
	assert.Equal(t, []any{"Conversion History", "Exported 2024-03-02T00:00:00Z"}, rows[0])
	assert.Equal(t, HistoryHeader, rows[historyStartRow-1])

	first := rows[historyStartRow]
	assert.Equal(t, "2024-03-01 12:30:00", first[0])
	assert.Equal(t, "IDR", first[1])
	assert.InDelta(t, 1000000.0, first[2], 0)
	assert.Equal(t, "RUB", first[3])
	assert.Equal(t, "h3", first[8])

	// missing rates export as blank cells
	last := rows[historyStartRow+2]
	assert.Equal(t, "", last[5])
	assert.Equal(t, "", last[6])

	assert.Equal(t, []any{"Pair Summary"}, rows[7])
	summary := rows[9]
	assert.Equal(t, "IDR/RUB", summary[0])
	assert.Equal(t, 3, summary[1])
	assert.InDelta(t, 3500000.0, summary[2], 0.001)
}

func TestHistoryRowsEmpty(t *testing.T) {
	rows := HistoryRows(nil, time.Now())
	require.Len(t, rows, 6)
	assert.Equal(t, HistoryHeader, rows[2])
}

type sheetsRecorder struct {
	requests []string
	updates  [][][]any
	mu       sync.Mutex
}

func (s *sheetsRecorder) handler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v4/spreadsheets":
			_, _ = w.Write([]byte(`{"spreadsheetId":"new-sheet","spreadsheetUrl":"https://example.test/new-sheet"}`))
		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/values/"):
			var body struct {
				Values [][]any `json:"values"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
			s.updates = append(s.updates, body.Values)
			_, _ = w.Write([]byte(`{}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	})
}

func newTestWriter(t *testing.T, cfg Config, h http.Handler) *Writer {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	cfg.Endpoint = server.URL + "/"
	w, err := newWriter(context.Background(), cfg, testLogger(), option.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	w.now = func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) }
	return w
}

func TestWriterExportHistory(t *testing.T) {
	rec := &sheetsRecorder{}
	cfg := DefaultConfig()
	cfg.BatchSize = 4
	w := newTestWriter(t, cfg, rec.handler(t))

	require.NoError(t, w.ExportHistory(context.Background(), sampleEntries()))

	assert.Equal(t, "POST /v4/spreadsheets", rec.requests[0])
	assert.Contains(t, rec.requests[1], "/v4/spreadsheets/new-sheet/values/A:Z:clear")
	require.Len(t, rec.updates, 3)
	assert.Len(t, rec.updates[0], 4)
	assert.Len(t, rec.updates[2], 2)
	assert.Equal(t, "Conversion History", rec.updates[0][0][0])
	assert.Contains(t, rec.requests[len(rec.requests)-1], ":batchUpdate")
	assert.Equal(t, "new-sheet", w.config.SpreadsheetID)
}

func TestWriterExportHistoryExistingSpreadsheet(t *testing.T) {
	rec := &sheetsRecorder{}
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "existing"
	cfg.EnableFormatting = false
	w := newTestWriter(t, cfg, rec.handler(t))

	require.NoError(t, w.ExportHistory(context.Background(), sampleEntries()))

	assert.Equal(t, "GET /v4/spreadsheets/existing", rec.requests[0])
	require.Len(t, rec.updates, 1)
	for _, r := range rec.requests {
		assert.NotContains(t, r, ":batchUpdate")
	}
}

func TestWriterExportHistoryInaccessibleSpreadsheet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "missing"
	w := newTestWriter(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
	}))

	err := w.ExportHistory(context.Background(), sampleEntries())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to access spreadsheet missing")
}
