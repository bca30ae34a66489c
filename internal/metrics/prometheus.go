package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	LoginSuccessTotal       prometheus.Counter
	LoginFailureTotal       prometheus.Counter
	FederatedLoginTotal     *prometheus.CounterVec
	UserRegisteredTotal     prometheus.Counter
	SessionsRevokedTotal    prometheus.Counter
	RateLimitRejectedTotal  *prometheus.CounterVec
)

// InitCustomMetrics initializes and registers custom Prometheus metrics.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	LoginSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boardauth_logins_success_total",
		Help: "Total number of successful local logins.",
	})
	LoginFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boardauth_logins_failure_total",
		Help: "Total number of failed local logins.",
	})
	FederatedLoginTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boardauth_federated_logins_total",
		Help: "Total number of successful federated logins, per provider.",
	}, []string{"provider"})
	UserRegisteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boardauth_users_registered_total",
		Help: "Total number of users registered.",
	})
	SessionsRevokedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boardauth_sessions_revoked_total",
		Help: "Total number of sessions removed by logout.",
	})
	RateLimitRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boardauth_ratelimit_rejected_total",
		Help: "Total number of requests rejected by the rate limiter, per action.",
	}, []string{"action"})

	if reg == nil {
		return
	}
	for _, c := range []prometheus.Collector{
		LoginSuccessTotal,
		LoginFailureTotal,
		FederatedLoginTotal,
		UserRegisteredTotal,
		SessionsRevokedTotal,
		RateLimitRejectedTotal,
	} {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register metric")
		}
	}
}

func init() {
	// Unregistered defaults keep the counters usable from unit tests without
	// a registry.
	InitCustomMetrics(nil)
}
