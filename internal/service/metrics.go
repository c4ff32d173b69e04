package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	settleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pps_settle_total",
		Help: "Settlement attempts by outcome status and resolution",
	}, []string{"status", "resolution"})

	settleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pps_settle_duration_seconds",
		Help:    "Latency distribution of settlement processing",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"status"})

	ledgerApplyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pps_ledger_apply_total",
		Help: "Ledger applications by direction",
	}, []string{"direction"})

	reconcileSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pps_reconcile_actions_total",
		Help: "Reconciliation sweep actions by result",
	}, []string{"result"})
)

// Settle resolution labels.
const (
	resolutionWon    = "won"
	resolutionReplay = "replay"
	resolutionLost   = "lost"
)
