package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "harness"
)

var (
	Debug                bool = true
	validOutcomes             = []string{"success", "setup_failure", "forced_termination"}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "executions_total",
		Help:      "Count of test executions by terminal outcome",
	}, []string{
		"test",
		"outcome",
	})

	cancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cancellations_total",
		Help:      "Count of cancellation requests sent to running tests",
	}, []string{
		"test",
		"reason",
	})

	executionDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "execution_duration_seconds",
		Help:      "Duration of the last execution of a test",
	}, []string{
		"test",
	})

	executionRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "execution_running",
		Help:      "1 while a test execution is running",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordExecutionStarted marks an execution as running.
func RecordExecutionStarted(test string) {
	if Debug {
		log.Debug("metric set", "m", "execution_running", "test", test)
	}
	executionRunning.Set(1)
}

// RecordCancellation counts a cancellation request. reason is "deadline" or "interrupt".
func RecordCancellation(test string, reason string) {
	if Debug {
		log.Debug("metric inc",
			"m", "cancellations_total",
			"test", test,
			"reason", reason)
	}
	cancellationsTotal.WithLabelValues(test, reason).Inc()
}

// RecordExecution records the terminal outcome of an execution.
func RecordExecution(test string, outcome string, duration time.Duration) {
	if !isValidOutcome(outcome) {
		log.Error("RecordExecution - invalid outcome", "outcome", outcome)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "executions_total",
			"test", test,
			"outcome", outcome,
			"duration", duration)
	}
	executionRunning.Set(0)
	executionsTotal.WithLabelValues(test, outcome).Inc()
	executionDuration.WithLabelValues(test).Set(duration.Seconds())
}

func isValidOutcome(outcome string) bool {
	return slices.Contains(validOutcomes, outcome)
}
