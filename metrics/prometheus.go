// Package metrics exposes prometheus instrumentation for the engines. All
// helpers are nil-guarded so code paths stay cheap when metrics are disabled.
package metrics

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	orderCounter       *prometheus.CounterVec
	tradeCounter       *prometheus.CounterVec
	settledPositions   *prometheus.CounterVec
	requestQueueGauge  *prometheus.GaugeVec
	matchingQueueGauge *prometheus.GaugeVec
)

// Start registers the instruments and serves the prometheus handler.
func Start(conf Config) {
	if !conf.Enabled {
		return
	}
	if err := setupMetrics(); err != nil {
		panic("could not set up metrics")
	}
	http.Handle(conf.Path, promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", conf.Port), nil))
	}()
}

func setupMetrics() error {
	oc := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openwager",
		Name:      "orders_total",
		Help:      "Number of orders created",
	}, []string{"market"})
	if err := prometheus.Register(oc); err != nil {
		return err
	}
	orderCounter = oc

	tc := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openwager",
		Name:      "trades_total",
		Help:      "Number of trades applied",
	}, []string{"market"})
	if err := prometheus.Register(tc); err != nil {
		return err
	}
	tradeCounter = tc

	sp := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openwager",
		Name:      "settled_positions_total",
		Help:      "Number of positions settled",
	}, []string{"market"})
	if err := prometheus.Register(sp); err != nil {
		return err
	}
	settledPositions = sp

	rq := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "openwager",
		Name:      "request_queue_depth",
		Help:      "Order request queue depth",
	}, []string{"market"})
	if err := prometheus.Register(rq); err != nil {
		return err
	}
	requestQueueGauge = rq

	mq := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "openwager",
		Name:      "matching_queue_depth",
		Help:      "Matching queue depth",
	}, []string{"market"})
	if err := prometheus.Register(mq); err != nil {
		return err
	}
	matchingQueueGauge = mq
	return nil
}

// OrderCounterInc increments the order counter.
func OrderCounterInc(market string) {
	if orderCounter == nil {
		return
	}
	orderCounter.WithLabelValues(market).Inc()
}

// TradeCounterAdd adds to the trade counter.
func TradeCounterAdd(market string, n int) {
	if tradeCounter == nil {
		return
	}
	tradeCounter.WithLabelValues(market).Add(float64(n))
}

// SettledPositionsInc increments the settled positions counter.
func SettledPositionsInc(market string) {
	if settledPositions == nil {
		return
	}
	settledPositions.WithLabelValues(market).Inc()
}

// RequestQueueDepth sets the intake queue depth gauge.
func RequestQueueDepth(market string, depth int) {
	if requestQueueGauge == nil {
		return
	}
	requestQueueGauge.WithLabelValues(market).Set(float64(depth))
}

// MatchingQueueDepth sets the matching queue depth gauge.
func MatchingQueueDepth(market string, depth int) {
	if matchingQueueGauge == nil {
		return
	}
	matchingQueueGauge.WithLabelValues(market).Set(float64(depth))
}
