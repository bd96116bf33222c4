package testutil

import (
	"net/http"
	"time"

	"veriflow/pkg/domain"
	"veriflow/pkg/requestcontext"
)

// WithTenant stamps the request context with a tenant, simulating what the
// RequestMeta middleware does for the X-Tenant-ID header.
func WithTenant(req *http.Request, tenant domain.TenantID) *http.Request {
	ctx := requestcontext.WithTenantID(req.Context(), tenant)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock so tests get deterministic
// timestamps in identity keys and case references.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}

// WithRequestID stamps the request context with a fixed request ID.
func WithRequestID(req *http.Request, id string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), id)
	return req.WithContext(ctx)
}
