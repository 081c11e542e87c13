package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDBPoolCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewDBPoolCollector(func() DBPoolStats {
		return DBPoolStats{Total: 5, Idle: 3, Acquired: 2, Max: 10}
	}))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	got := map[string]float64{}
	for _, f := range families {
		ms := f.GetMetric()
		if len(ms) != 1 || ms[0].GetGauge() == nil {
			t.Fatalf("family %s: expected a single gauge", f.GetName())
		}
		got[f.GetName()] = ms[0].GetGauge().GetValue()
	}

	want := map[string]float64{
		"trellis_db_pool_total_conns":    5,
		"trellis_db_pool_idle_conns":     3,
		"trellis_db_pool_acquired_conns": 2,
		"trellis_db_pool_max_conns":      10,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s: expected %v, got %v", name, v, got[name])
		}
	}
}
