package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady pings the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]any{}
	if err := s.backend.Store.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics exposes request and security counters in plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	tm := s.traceMiddleware.GetMetrics()
	sm := s.securityDetector.GetMetrics()

	fmt.Fprintf(w, "# HELP http_requests_total Total HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with status 5xx\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n", tm.ServerErrors)
	fmt.Fprintf(w, "# HELP http_last_response_microseconds Duration of the last request\n")
	fmt.Fprintf(w, "# TYPE http_last_response_microseconds gauge\n")
	fmt.Fprintf(w, "http_last_response_microseconds %d\n", tm.LastResponseTime)
	fmt.Fprintf(w, "# HELP rate_limit_hits_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n", s.rateLimiter.Hits())
	fmt.Fprintf(w, "# HELP rate_limit_active_clients Tracked client IPs\n")
	fmt.Fprintf(w, "# TYPE rate_limit_active_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_active_clients %d\n", s.rateLimiter.ActiveClients())
	fmt.Fprintf(w, "# HELP security_suspicious_requests_total Requests matching probe patterns\n")
	fmt.Fprintf(w, "# TYPE security_suspicious_requests_total counter\n")
	fmt.Fprintf(w, "security_suspicious_requests_total %d\n", sm.SuspiciousRequests)
	fmt.Fprintf(w, "# HELP security_invalid_ip_total Unparseable client addresses\n")
	fmt.Fprintf(w, "# TYPE security_invalid_ip_total counter\n")
	fmt.Fprintf(w, "security_invalid_ip_total %d\n", sm.InvalidIPAttempts)
	fmt.Fprintf(w, "# HELP app_uptime_seconds Seconds since start\n")
	fmt.Fprintf(w, "# TYPE app_uptime_seconds gauge\n")
	fmt.Fprintf(w, "app_uptime_seconds %.0f\n", s.now().Sub(s.startedAt).Seconds())
}
