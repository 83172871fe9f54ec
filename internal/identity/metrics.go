// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the identity workflows.
var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_registrations_total",
		Help: "Total number of pending registrations created",
	})

	activationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_activations_total",
		Help: "Total number of accounts activated",
	})

	// authAttemptsTotal counts authentication attempts by outcome.
	authAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatehouse_auth_attempts_total",
		Help: "Total number of authentication attempts by result",
	}, []string{"result"})

	suspensionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_suspensions_total",
		Help: "Total number of suspension windows opened",
	})

	pendingSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatehouse_pending_swept_total",
		Help: "Total number of expired pending registrations removed",
	})
)
