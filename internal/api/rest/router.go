package rest

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP surface: lead CRUD, verification and
// prospecting, CSV import, provider webhooks and operational endpoints.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/leads", h.handleCreateLead)
	mux.HandleFunc("GET /api/v1/leads", h.handleListLeads)
	mux.HandleFunc("GET /api/v1/leads/{id}", h.handleGetLead)
	mux.HandleFunc("GET /api/v1/messages", h.handleListMessages)

	mux.HandleFunc("POST /api/v1/prospect/verify", h.handleVerify)
	mux.HandleFunc("POST /api/v1/prospect/generate", h.handleGenerate)
	mux.HandleFunc("POST /api/v1/import/csv", h.handleImportCSV)

	mux.HandleFunc("POST /webhooks/twilio/sms", h.handleTwilioSMS)
	mux.HandleFunc("POST /webhooks/sendgrid/inbound", h.handleInboundEmail)

	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return chain(mux,
		recoveryMiddleware,
		requestIDMiddleware,
		loggingMiddleware,
	)
}
