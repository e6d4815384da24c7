package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meteoboard_client_requests_total",
		Help: "Количество исходящих запросов по результату.",
	}, []string{"outcome"})

	refreshTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meteoboard_client_token_refresh_total",
		Help: "Количество обменов refresh-токена.",
	})

	refreshFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meteoboard_client_token_refresh_failed_total",
		Help: "Количество обменов refresh-токена, завершившихся принудительным выходом.",
	})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meteoboard_client_request_retries_total",
		Help: "Количество повторов запроса после обновления токена.",
	})
)
