package daemon

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCase(t *testing.T, dir, name, value string) {
	t.Helper()
	body := `{"id":"` + name + `","client_name":"Test","jurisdiction":"OR","plan_type":"AB",
"grantors":[{"name":"A"},{"name":"B"}],
"assets":[{"description":"Home","value":"` + value + `","held_in_trust":true}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o600))
}

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()
	return New(Config{
		CasesDir:             dir,
		FallbackJurisdiction: "FED",
		IncludeFederal:       true,
		Interval:             10 * time.Second,
		EventsBuffer:         10,
		Logger:               quietLogger(),
	})
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Cases: 3, TotalEstate: 9_000_000, TaxNoPlan: 400_000, Savings: 100_000, CombinedTax: 400_000}
	curr := Snapshot{Cases: 4, TotalEstate: 12_000_000, TaxNoPlan: 605_000, Savings: 203_750, CombinedTax: 605_000}

	delta := diffSnapshots(prev, curr)
	assert.Equal(t, 1, delta.Cases)
	assert.InDelta(t, 3_000_000, delta.TotalEstate, 1e-6)
	assert.InDelta(t, 205_000, delta.TaxNoPlan, 1e-6)
	assert.InDelta(t, 103_750, delta.Savings, 1e-6)
	assert.False(t, delta.isZero())

	assert.True(t, diffSnapshots(curr, curr).isZero())
	assert.True(t, Delta{TaxNoPlan: 0.001}.isZero())
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{CasesDir: ".", Interval: 10 * time.Second, EventsBuffer: 2, Logger: quietLogger()})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
}

func TestPollOnce_PublishesSnapshotThenDelta(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "smith", "$3,000,000")
	s := newTestService(t, dir)

	s.pollOnce("startup")
	s.pollOnce("interval") // unchanged, no event

	writeCase(t, dir, "jones", "$1,500,000")
	s.pollOnce("watch")

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	require.Len(t, events, 2)
	assert.Equal(t, EventSnapshot, events[0].Type)
	assert.Equal(t, 1, events[0].Snapshot.Cases)
	assert.InDelta(t, 205_000, events[0].Snapshot.TaxNoPlan, 0.01)

	assert.Equal(t, EventPortfolioDelta, events[1].Type)
	assert.Equal(t, "watch", events[1].Trigger)
	assert.Equal(t, 1, events[1].Delta.Cases)
	assert.InDelta(t, 1_500_000, events[1].Delta.TotalEstate, 0.01)
}

func TestHandlers(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "smith", "$3,000,000")
	s := newTestService(t, dir)
	s.pollOnce("startup")

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	_ = resp.Body.Close()
	assert.Equal(t, int64(1), st.PollCount)
	assert.Equal(t, 1, st.Summary.Cases)
	assert.Equal(t, dir, st.CasesDir)
	assert.Equal(t, 1, st.EventCount)

	resp, err = http.Get(srv.URL + "/v1/events")
	require.NoError(t, err)
	var events []Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	_ = resp.Body.Close()
	require.Len(t, events, 1)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "estateplan_portfolio_cases 1")
	assert.Contains(t, string(body), `estateplan_daemon_polls_total{result="ok"} 1`)
}

func TestStream_SendsCurrentSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "smith", "$3,000,000")
	s := newTestService(t, dir)
	s.pollOnce("startup")

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	buf := make([]byte, 512)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "event: snapshot")
}

func TestDirWatcher_SignalsOnNewCase(t *testing.T) {
	dir := t.TempDir()
	w, err := newDirWatcher(dir, 20*time.Millisecond, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	writeCase(t, dir, "new", "$1")

	select {
	case <-w.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("no change signal after writing a case file")
	}
}

func TestDirWatcher_MissingDir(t *testing.T) {
	_, err := newDirWatcher(filepath.Join(t.TempDir(), "missing"), time.Millisecond, quietLogger())
	assert.Error(t, err)
}
