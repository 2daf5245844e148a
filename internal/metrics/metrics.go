// Package metrics: Prometheus-метрики бота. Глобальных коллекторов нет:
// всё регистрируется в реестре, который создаёт main.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mbot"

type Metrics struct {
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	RollCalls       *prometheus.CounterVec
	SendFailures    prometheus.Counter
	GatewayConnects prometheus.Counter
	GatewayErrors   prometheus.Counter
}

// NewRegistry: реестр с Go runtime и process коллекторами.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Handled chat commands by command and result.",
		}, []string{"command", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command handling time.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 300, 3600},
		}, []string{"command"}),
		RollCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollcall_outcomes_total",
			Help:      "Roll call registry outcomes by operation.",
		}, []string{"operation", "outcome"}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Messages the platform refused or that timed out.",
		}),
		GatewayConnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_connects_total",
			Help:      "Successful gateway connects, reconnects included.",
		}),
		GatewayErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "Gateway read, decode and reconnect errors.",
		}),
	}
	reg.MustRegister(m.Commands, m.CommandDuration, m.RollCalls, m.SendFailures, m.GatewayConnects, m.GatewayErrors)
	return m
}

// RegisterActiveRollCalls: gauge с числом активных перекличек.
func RegisterActiveRollCalls(reg prometheus.Registerer, active func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rollcalls_active",
		Help:      "Guilds with a running roll call.",
	}, func() float64 { return float64(active()) }))
}
