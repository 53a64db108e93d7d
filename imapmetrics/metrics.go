// Package imapmetrics instruments an imapclient.Handler with Prometheus
// counters, the way pkg/metrics instruments sora's connection and database
// layers: package-level vectors registered once via promauto, incremented
// from a thin wrapper around the instrumented component's entry points.
package imapmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jefferyq2/go-imap-core/imapclient"
)

var (
	CommandsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imapclient_commands_submitted_total",
			Help: "Total number of commands and continuation items submitted to a Handler",
		},
		[]string{"item"},
	)

	ChunksWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imapclient_chunks_written_total",
			Help: "Total number of outbound chunks written to the wire",
		},
	)

	BytesWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imapclient_bytes_written_total",
			Help: "Total number of outbound bytes written to the wire",
		},
	)

	ResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imapclient_responses_total",
			Help: "Total number of tagged and untagged responses delivered upstream",
		},
		[]string{"type"},
	)

	ContinuationRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imapclient_continuation_requests_total",
			Help: "Total number of continuation requests delivered upstream",
		},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imapclient_errors_total",
			Help: "Total number of inbound error events, labeled by kind",
		},
		[]string{"kind"},
	)
)

// NewHandler builds an imapclient.Handler identical to
// imapclient.NewHandlerWithOptions, except that every byte written and
// every InboundEvent delivered is first counted against the vectors above.
func NewHandler(write func([]byte), deliver func(imapclient.InboundEvent), options *imapclient.Options) *imapclient.Handler {
	instrumentedWrite := func(b []byte) {
		ChunksWrittenTotal.Inc()
		BytesWrittenTotal.Add(float64(len(b)))
		write(b)
	}
	instrumentedDeliver := func(ev imapclient.InboundEvent) {
		observeEvent(ev)
		deliver(ev)
	}
	return imapclient.NewHandlerWithOptions(instrumentedWrite, instrumentedDeliver, options)
}

func observeEvent(ev imapclient.InboundEvent) {
	switch ev := ev.(type) {
	case *imapclient.Response:
		ResponsesTotal.WithLabelValues(ev.Type).Inc()
	case *imapclient.ContinuationRequest:
		ContinuationRequestsTotal.Inc()
	case *imapclient.ErrorEvent:
		ErrorsTotal.WithLabelValues(ev.Err.Kind.String()).Inc()
	}
}

// Submit records item against CommandsSubmittedTotal, then forwards to
// h.Submit. Callers that want per-item counts should submit through this
// function instead of calling h.Submit directly.
func Submit(h *imapclient.Handler, item imapclient.Command) *imapclient.Future {
	CommandsSubmittedTotal.WithLabelValues(commandLabel(item)).Inc()
	return h.Submit(item)
}

func commandLabel(item imapclient.Command) string {
	switch item := item.(type) {
	case *imapclient.TaggedCommand:
		return item.Name
	case imapclient.IdleDone:
		return "IDLE-DONE"
	case imapclient.ContinuationResponse:
		return "CONTINUATION-RESPONSE"
	default:
		return "unknown"
	}
}
