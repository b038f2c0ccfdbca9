package input

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sentencesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_file_sentences_total",
			Help: "Total number of NMEA 0183 lines read per file",
		},
		[]string{"file"},
	)

	ndjsonLinesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_http_ndjson_lines_total",
			Help: "Total number of NDJSON lines received per endpoint",
		},
		[]string{"endpoint"},
	)

	ndjsonParseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_http_ndjson_parse_errors_total",
			Help: "Total number of NDJSON parse errors per endpoint",
		},
		[]string{"endpoint"},
	)

	eventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_http_events_rejected_total",
			Help: "Total number of well-formed events refused by the HTTP input",
		},
		[]string{"reason"},
	)
)
