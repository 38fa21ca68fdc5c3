package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sightline/internal/game"
)

// Metrics keep bounded cardinality: no per-player or per-IP labels.
var (
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sightline_ws_connections_active",
		Help: "Currently connected websocket sessions",
	})

	framesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sightline_update_frames_sent_total",
		Help: "UPDATE frames delivered to clients",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sightline_update_frames_dropped_total",
		Help: "UPDATE frames dropped because a client's send queue was full",
	})

	bytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sightline_bytes_sent_total",
		Help: "Total bytes written to websocket clients",
	})

	inboundFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sightline_inbound_frames_total",
		Help: "Client frames received by type",
	}, []string{"type"}) // bounded: input, shoot, toggle, malformed

	connectionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sightline_connections_rejected_total",
		Help: "Connections refused before upgrade",
	}, []string{"reason"}) // bounded: rate_limit, total_limit, ip_limit
)

func recordRejection(reason string) {
	connectionsRejected.WithLabelValues(reason).Inc()
}

// RegisterEngineMetrics exposes simulation gauges that read the engine's
// status on scrape instead of being pushed every tick.
func RegisterEngineMetrics(engine *game.Engine) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sightline_entities",
		Help: "Simulated entities, bots and players",
	}, func() float64 { return float64(engine.Status().Entities) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sightline_players",
		Help: "Connected player entities",
	}, func() float64 { return float64(engine.Status().Players) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sightline_bullets_in_flight",
		Help: "Live bullets being integrated",
	}, func() float64 { return float64(engine.Status().Bullets) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sightline_tick_time_ms_avg",
		Help: "Average tick wall time over the last second",
	}, func() float64 { return float64(engine.Status().TickTimeMsAvg) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sightline_los_time_ms_avg",
		Help: "Average LOS filtering wall time over the last second",
	}, func() float64 { return float64(engine.Status().LosTimeMsAvg) })
}

// StartDebugServer serves pprof and Prometheus metrics on a localhost
// listener, kept off the public port so profiling can never be reached
// from outside the host.
func StartDebugServer(addr string) {
	if addr == "" {
		log.Println("debug server disabled")
		return
	}
	if !isLoopback(addr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Printf("debug server address %s forced to localhost", addr)
		addr = "127.0.0.1:6060"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Printf("debug server on http://%s (pprof, metrics)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("debug server: %v", err)
		}
	}()
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
