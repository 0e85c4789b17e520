package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "matchannounce"

var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "cycles_total",
		Help:      "轮询周期次数，result=ok/error/locked",
	}, []string{"result"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cycle_duration_seconds",
		Help:      "单个轮询周期耗时",
		Buckets:   prometheus.DefBuckets,
	})

	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "rows_total",
		Help:      "处理的比赛行，outcome=merged/not_found/malformed/failed",
	}, []string{"outcome"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "notifications_total",
		Help:      "发出的通知，kind=kickoff/fulltime/score/event，result=sent/failed/skipped（无投递目标）",
	}, []string{"kind", "result"})
)
