package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric はレジストリから名前とラベルが一致するメトリクスを探す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return nil
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	if len(m.GetLabel()) != len(labels) {
		return false
	}
	for _, lp := range m.GetLabel() {
		if labels[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

// TestRecordRefreshSuccess_IncrementsCounter はリフレッシュ成功カウンタが増加することを検証する。
func TestRecordRefreshSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRefreshSuccess(5)
	c.RecordRefreshSuccess(5)

	m := findMetric(t, reg, "personcache_refresh_success_total", nil)
	if v := m.GetCounter().GetValue(); v != 2 {
		t.Errorf("refresh_success_total = %v, want 2", v)
	}
}

// TestRecordRefreshFailure_LabelsReason は失敗理由ごとにカウントされることを検証する。
func TestRecordRefreshFailure_LabelsReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRefreshFailure("source")
	c.RecordRefreshFailure("source")
	c.RecordRefreshFailure("canceled")

	if v := findMetric(t, reg, "personcache_refresh_fail_total", map[string]string{"reason": "source"}).GetCounter().GetValue(); v != 2 {
		t.Errorf("refresh_fail_total{reason=source} = %v, want 2", v)
	}
	if v := findMetric(t, reg, "personcache_refresh_fail_total", map[string]string{"reason": "canceled"}).GetCounter().GetValue(); v != 1 {
		t.Errorf("refresh_fail_total{reason=canceled} = %v, want 1", v)
	}
}

// TestSetPeopleHeld_SetsGauge は保持件数ゲージが最後の値になることを検証する。
func TestSetPeopleHeld_SetsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetPeopleHeld(5)
	c.SetPeopleHeld(4)

	if v := findMetric(t, reg, "personcache_people_held", nil).GetGauge().GetValue(); v != 4 {
		t.Errorf("people_held = %v, want 4", v)
	}
}

// TestRecordMutation_LabelsOp は操作種別ごとにカウントされることを検証する。
func TestRecordMutation_LabelsOp(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMutation("update")
	c.RecordMutation("delete")
	c.RecordMutation("update")

	if v := findMetric(t, reg, "personcache_mutations_total", map[string]string{"op": "update"}).GetCounter().GetValue(); v != 2 {
		t.Errorf("mutations_total{op=update} = %v, want 2", v)
	}
}

// TestRecordRefreshLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordRefreshLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRefreshLatency(150 * time.Millisecond)

	h := findMetric(t, reg, "personcache_refresh_latency_seconds", nil).GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample_count = %d, want 1", h.GetSampleCount())
	}
	if h.GetSampleSum() < 0.149 || h.GetSampleSum() > 0.151 {
		t.Errorf("sample_sum = %v, want ~0.15", h.GetSampleSum())
	}
}

// TestRecordHTTPStatus_LabelsStatusCode はステータスコードごとにカウントされることを検証する。
func TestRecordHTTPStatus_LabelsStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)
	c.RecordHTTPStatus(200)

	if v := findMetric(t, reg, "personcache_http_status_total", map[string]string{"status_code": "200"}).GetCounter().GetValue(); v != 2 {
		t.Errorf("http_status_total{200} = %v, want 2", v)
	}
}

// TestNewCollector_DuplicateRegistrationPanics は同一レジストリへの二重登録でpanicすることを検証する。
func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewCollector(reg)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	_ = NewCollector(reg)
}
