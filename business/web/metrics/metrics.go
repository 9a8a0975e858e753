// Package metrics registers the prometheus collectors exported by the node.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Source provides the chain values published as gauges.
type Source interface {
	Height() uint64
	MempoolDepth() int
	TotalTransactions() uint64
	FailedTransactions() uint64
}

// Metrics holds the collectors updated by the rpc and block producing code.
type Metrics struct {
	rpcRequests  *prometheus.CounterVec
	rpcErrors    *prometheus.CounterVec
	blocksSealed prometheus.Counter
}

// New constructs the collectors and registers them with the registerer.
func New(reg prometheus.Registerer, src Source) (*Metrics, error) {
	m := Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lyrion_rpc_requests_total",
			Help: "Number of JSON-RPC requests by method.",
		}, []string{"method"}),
		rpcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lyrion_rpc_errors_total",
			Help: "Number of JSON-RPC requests answered with an error by method.",
		}, []string{"method"}),
		blocksSealed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lyrion_blocks_sealed_total",
			Help: "Number of blocks sealed by this process.",
		}),
	}

	collectors := []prometheus.Collector{
		m.rpcRequests,
		m.rpcErrors,
		m.blocksSealed,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "lyrion_block_height",
			Help: "Number of the latest sealed block.",
		}, func() float64 { return float64(src.Height()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "lyrion_mempool_depth",
			Help: "Number of transactions waiting in the mempool.",
		}, func() float64 { return float64(src.MempoolDepth()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "lyrion_block_transactions",
			Help: "Number of transactions included in sealed blocks.",
		}, func() float64 { return float64(src.TotalTransactions()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "lyrion_block_failed_transactions",
			Help: "Number of transactions recorded as failed in sealed blocks.",
		}, func() float64 { return float64(src.FailedTransactions()) }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &m, nil
}

// RPCRequest counts a request for the method.
func (m *Metrics) RPCRequest(method string) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method).Inc()
}

// RPCError counts a failed request for the method.
func (m *Metrics) RPCError(method string) {
	if m == nil {
		return
	}
	m.rpcErrors.WithLabelValues(method).Inc()
}

// BlockSealed counts a block sealed by this process.
func (m *Metrics) BlockSealed() {
	if m == nil {
		return
	}
	m.blocksSealed.Inc()
}
