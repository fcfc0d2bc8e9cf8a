package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ringtone_scheduler_commands_total",
		Help: "Scheduler commands issued, by operation and result.",
	},
	[]string{"op", "result"},
)

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	commandsTotal.WithLabelValues(op, result).Inc()
}
