package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/server/auth"
	"github.com/deliverhub/deliverhub/internal/server/metrics"
	"github.com/deliverhub/deliverhub/internal/server/models"
)

type ctxKey int

const principalKey ctxKey = iota

// principalFrom returns the request's principal. Handlers behind
// withPrincipal can rely on it being present.
func principalFrom(ctx context.Context) (models.Principal, error) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	if !ok {
		return models.Principal{}, common.ErrorUnauthenticated
	}
	return p, nil
}

// withPrincipal rejects requests without a verifiable bearer token and
// stores the resolved principal in the request context.
func withPrincipal(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, common.ErrorUnauthenticated)
			return
		}
		p, err := auth.PrincipalFromToken(token, secret)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withMetrics records request latency for one route pattern by status code.
func withMetrics(m *metrics.Metrics, route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.RequestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
