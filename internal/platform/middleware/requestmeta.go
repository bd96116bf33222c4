// Package middleware carries the request-scoped plumbing every route shares:
// request IDs, request time, and tenant resolution.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"veriflow/pkg/domain"
	"veriflow/pkg/requestcontext"
)

// RequestMeta stamps each request with an ID, a request-scoped timestamp, and
// the resolved tenant. It should be applied before any handler that logs or
// persists.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))

		tenant := domain.TenantID(r.Header.Get("X-Tenant-ID"))
		if tenant == "" {
			tenant = domain.DefaultTenant
		}
		ctx = requestcontext.WithTenantID(ctx, tenant)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
