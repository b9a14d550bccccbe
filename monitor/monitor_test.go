package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wfunc/dicetown/gameerr"
)

func TestObserveActionLabelsByKind(t *testing.T) {
	m := NewMonitor("test")

	m.ObserveAction("roll", nil, 5*time.Millisecond)
	m.ObserveAction("buy_establishment", gameerr.New(gameerr.KindAlreadyPurchased, ""), time.Millisecond)
	m.ObserveAction("buy_establishment", gameerr.New(gameerr.KindAlreadyPurchased, ""), time.Millisecond)

	actions := m.Metrics().Actions
	if got := testutil.ToFloat64(actions.WithLabelValues("roll", "ok")); got != 1 {
		t.Errorf("Expected 1 ok roll, got %v", got)
	}
	if got := testutil.ToFloat64(actions.WithLabelValues("buy_establishment", "ALREADY_PURCHASED")); got != 2 {
		t.Errorf("Expected 2 rejected purchases, got %v", got)
	}
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := &Monitor{metrics: NewMetrics("test", reg), registry: reg, startTime: time.Now()}

	m.PurchaseConflict()
	m.AutomatedTurn()
	m.AutomatedTurn()
	m.GameFinished()
	m.IncSessionsOnline()
	m.IncSessionsOnline()
	m.DecSessionsOnline()
	m.SetActiveRooms(3)

	checks := map[string]struct {
		c    prometheus.Collector
		want float64
	}{
		"conflicts": {m.metrics.PurchaseConflict, 1},
		"automated": {m.metrics.AutomatedTurns, 2},
		"finished":  {m.metrics.GamesFinished, 1},
		"sessions":  {m.metrics.SessionsOnline, 1},
		"rooms":     {m.metrics.ActiveRooms, 3},
	}
	for name, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s: expected %v, got %v", name, c.want, got)
		}
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	m := NewMonitor("dicetown")
	m.GameFinished()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dicetown_games_finished_total 1") {
		t.Error("Expected games_finished_total in the exposition output")
	}
}
