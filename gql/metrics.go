package gql

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values of graphene_gql_parses_total.
const (
	outcomeOK      = "ok"
	outcomeLexical = "lexical_error"
	outcomeSyntax  = "syntax_error"
)

type parseMetrics struct {
	parsesTotal    *prometheus.CounterVec
	tokensPerParse prometheus.Histogram
}

var metrics parseMetrics

func init() {
	metrics = parseMetrics{
		parsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphene",
			Subsystem: "gql",
			Name:      "parses_total",
			Help:      `The number of parse attempts, by outcome.`,
		}, []string{"outcome"}),
		tokensPerParse: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "graphene",
			Subsystem: "gql",
			Name:      "tokens_per_parse",
			Help: `The number of parser-visible tokens in each input, EOF included.

Hidden tokens (whitespace and comments) are not counted.
`,
			Buckets: prometheus.ExponentialBuckets(4, 2, 10),
		}),
	}
	prometheus.MustRegister(metrics.parsesTotal, metrics.tokensPerParse)
}

func (m parseMetrics) observe(tokens int, err error) {
	m.tokensPerParse.Observe(float64(tokens))
	m.parsesTotal.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	var le *LexicalError
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &le):
		return outcomeLexical
	}
	return outcomeSyntax
}
