package metrics_test

import (
	"testing"

	"github.com/lyrion-l2/lyrion-node/business/web/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type source struct{}

func (source) Height() uint64             { return 7 }
func (source) MempoolDepth() int          { return 3 }
func (source) TotalTransactions() uint64  { return 11 }
func (source) FailedTransactions() uint64 { return 2 }

func TestMetrics(t *testing.T) {
	t.Log("Given the need to export node metrics.")
	{
		reg := prometheus.NewRegistry()

		m, err := metrics.New(reg, source{})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to register the collectors: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to register the collectors.", success)

		m.RPCRequest("eth_chainId")
		m.RPCRequest("eth_chainId")
		m.RPCError("eth_getBlockByNumber")
		m.BlockSealed()

		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to gather: %v", failed, err)
		}

		values := make(map[string]float64)
		for _, mf := range families {
			for _, metric := range mf.GetMetric() {
				switch {
				case metric.GetCounter() != nil:
					values[mf.GetName()] += metric.GetCounter().GetValue()
				case metric.GetGauge() != nil:
					values[mf.GetName()] += metric.GetGauge().GetValue()
				}
			}
		}

		exp := map[string]float64{
			"lyrion_rpc_requests_total":        2,
			"lyrion_rpc_errors_total":          1,
			"lyrion_blocks_sealed_total":       1,
			"lyrion_block_height":              7,
			"lyrion_mempool_depth":             3,
			"lyrion_block_transactions":        11,
			"lyrion_block_failed_transactions": 2,
		}
		for name, v := range exp {
			if values[name] != v {
				t.Fatalf("\t%s\tShould report %s as %v, got %v.", failed, name, v, values[name])
			}
		}
		t.Logf("\t%s\tShould report every metric.", success)

		if _, err := metrics.New(reg, source{}); err == nil {
			t.Fatalf("\t%s\tShould refuse to register twice.", failed)
		}
		t.Logf("\t%s\tShould refuse to register twice.", success)
	}
}
