package main

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	connectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pr1_connections_accepted_total",
		Help: "TCP connections accepted.",
	})
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pr1_messages_received_total",
		Help: "Inbound messages by tag byte.",
	}, []string{"tag"})
	protocolViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pr1_protocol_violations_total",
		Help: "Connections closed for invalid or suspicious data.",
	})
	racesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pr1_races_started_total",
		Help: "Races drained from a lobby into the pool.",
	})
	chatLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pr1_chat_lines_total",
		Help: "Chat messages relayed.",
	})
	playersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pr1_players_online",
		Help: "Connections with a registered player.",
	})
	racesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pr1_races_active",
		Help: "Races currently occupied.",
	})
)

// serveMetrics exposes the prometheus registry over HTTP. Best effort: a
// metrics listener failure is logged, never fatal.
func serveMetrics(port int, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := ":" + strconv.Itoa(port)
	log.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", zap.Error(err))
	}
}
