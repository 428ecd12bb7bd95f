package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sui_transactions_total", Help: "Transactions submitted by target and outcome"},
		[]string{"function", "status"},
	)
	AirdropTransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "airdrop_transfers_total", Help: "Airdrop transfers by outcome"},
		[]string{"status"},
	)
	ClaimsScannedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "reward_claims_scanned_total", Help: "Coupon claim records read from the chain"},
	)
	PayoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reward_payouts_total", Help: "Reward release decisions by outcome"},
		[]string{"outcome"},
	)
	PendingRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "reward_pending_records", Help: "Claim records not yet funded after the last pass"},
	)
)

func init() {
	prometheus.MustRegister(TransactionsTotal, AirdropTransfersTotal, ClaimsScannedTotal, PayoutsTotal, PendingRecords)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
