package httpapi

import "github.com/prometheus/client_golang/prometheus"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_api_http_requests_total",
		Help: "Requisições HTTP atendidas.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "market_api_http_request_duration_seconds",
		Help:    "Latência das requisições HTTP.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	betsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_api_bets_placed_total",
		Help: "Apostas gravadas.",
	})

	eventsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_api_events_created_total",
		Help: "Eventos de mercado criados.",
	})

	eventsSettled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "market_api_events_settled_total",
		Help: "Eventos fechados, por status final.",
	}, []string{"status"})
)

// RegisterMetrics registra os coletores da API. Chamado uma vez no main.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{httpRequests, httpDuration, betsPlaced, eventsCreated, eventsSettled} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
