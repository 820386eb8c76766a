package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/salescope/internal/adapters/notify"
	"github.com/alejandrodnm/salescope/internal/adapters/storage"
	"github.com/alejandrodnm/salescope/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, seedProducts(context.Background(), store, "../../testdata/products.json"))

	var buf bytes.Buffer
	now := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return &app{
		facade:   analysis.New(store, store, now),
		runs:     store,
		reporter: notify.NewConsoleWriter(&buf, notify.FormatTable),
		out:      &buf,
	}, &buf
}

func TestRunTool(t *testing.T) {
	a, buf := newTestApp(t)

	require.NoError(t, a.runTool(context.Background(), "demand", "winter jacket", "2023-01-01", "2023-12-31"))
	out := buf.String()
	assert.Contains(t, out, "[OK] Analyzed demand for product 'winter jacket'")
	assert.Contains(t, out, "2023-12")
	assert.NotContains(t, out, "2024-01")

	buf.Reset()
	require.NoError(t, a.runTool(context.Background(), "lifecycle", "ghost", "", ""))
	assert.Contains(t, buf.String(), "[FAIL] Product 'ghost' not found")

	buf.Reset()
	require.NoError(t, a.runTool(context.Background(), "seasonality", "desk lamp", "", ""))
	assert.Contains(t, buf.String(), "[OK] Analyzed seasonality for product 'desk lamp'")
	assert.Contains(t, buf.String(), "weak seasonality")

	assert.Error(t, a.runTool(context.Background(), "forecast", "x", "", ""))
}

func TestMenu(t *testing.T) {
	a, buf := newTestApp(t)

	input := strings.Join([]string{
		"1", "wireless earbuds",
		"3", "garden hose", "2023-06-01", "2023-06-30",
		"9",
		"4",
		"5",
		"0",
	}, "\n") + "\n"

	require.NoError(t, a.menu(context.Background(), strings.NewReader(input)))

	out := buf.String()
	assert.Contains(t, out, "Analyzed lifecycle for product 'wireless earbuds'")
	assert.Contains(t, out, "Analyzed demand for product 'garden hose'")
	assert.Contains(t, out, "2023-06")
	assert.Contains(t, out, "Invalid choice")
	assert.Contains(t, out, "assistant disabled")
	assert.Contains(t, out, "product_demand")
	assert.Contains(t, out, "Exiting...")
}

func TestMenu_ReportFailureKeepsRunning(t *testing.T) {
	a, buf := newTestApp(t)
	a.reporter = notify.NewConsoleWriter(failingWriter{}, notify.FormatJSON)

	require.NoError(t, a.menu(context.Background(), strings.NewReader("5\n0\n")))
	assert.Contains(t, buf.String(), "Exiting...")
}

func TestMenu_EOF(t *testing.T) {
	a, _ := newTestApp(t)
	assert.NoError(t, a.menu(context.Background(), strings.NewReader("1\n")))
}

func TestAsk_WithoutAssistant(t *testing.T) {
	a, _ := newTestApp(t)
	assert.ErrorIs(t, a.ask(context.Background(), "hello"), errNoAssistant)
}

func TestPrintTools(t *testing.T) {
	a, buf := newTestApp(t)
	require.NoError(t, a.printTools())
	assert.Contains(t, buf.String(), "product_seasonality")
}

// --- mocks ---

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }
