package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
	"github.com/bwbexpress/leadflow-backend/internal/domain/values"
	"github.com/bwbexpress/leadflow-backend/internal/service/ingest"
	"github.com/bwbexpress/leadflow-backend/internal/service/prospect"
	"github.com/bwbexpress/leadflow-backend/internal/service/verification"
)

// Orchestrator is the outreach surface the API depends on.
type Orchestrator interface {
	Orchestrate(ctx context.Context, leadID string) error
	HandleInboundSMS(ctx context.Context, from, body string) error
	HandleInboundEmail(ctx context.Context, from, subject, body string) error
}

// Prospector generates leads from external directories.
type Prospector interface {
	Generate(ctx context.Context, req prospect.GenerateRequest) (prospect.GenerateResult, error)
}

// Handler carries the wired services behind the HTTP surface.
type Handler struct {
	leads           lead.Repository
	messages        lead.MessageLog
	verifier        *verification.Service
	prospector      Prospector
	importer        *ingest.Service
	orchestrator    Orchestrator
	defaultTimezone string
	validate        *validator.Validate
	logger          *slog.Logger

	// backgroundTimeout bounds the detached first-contact dispatch started
	// by lead creation.
	backgroundTimeout time.Duration
}

func NewHandler(
	leads lead.Repository,
	messages lead.MessageLog,
	verifier *verification.Service,
	prospector Prospector,
	importer *ingest.Service,
	orchestrator Orchestrator,
	defaultTimezone string,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		leads:             leads,
		messages:          messages,
		verifier:          verifier,
		prospector:        prospector,
		importer:          importer,
		orchestrator:      orchestrator,
		defaultTimezone:   defaultTimezone,
		validate:          validator.New(),
		logger:            logger,
		backgroundTimeout: 30 * time.Second,
	}
}

type createLeadRequest struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Company      string   `json:"company"`
	Timezone     string   `json:"timezone"`
	ConsentSMS   bool     `json:"consent_sms"`
	ConsentEmail bool     `json:"consent_email"`
	ConsentVoice bool     `json:"consent_voice"`
	Source       string   `json:"source"`
	Tags         []string `json:"tags"`
}

type createLeadResponse struct {
	ID   string     `json:"id"`
	Lead *lead.Lead `json:"lead"`
}

// handleCreateLead stores a new lead and kicks off the first outreach touch
// in the background, so the caller is not held for the SMS round trip.
func (h *Handler) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	var phone values.PhoneNumber
	if req.Phone != "" {
		parsed, err := values.NewPhoneNumber(req.Phone)
		if err != nil {
			writeValidationError(w, "phone is not a valid number")
			return
		}
		phone = parsed
	}
	var email values.Email
	if req.Email != "" {
		parsed, err := values.NewEmail(req.Email)
		if err != nil {
			writeValidationError(w, "email is not a valid address")
			return
		}
		email = parsed
	}

	source := req.Source
	if source == "" {
		source = "api"
	}
	l, err := lead.NewLead(req.Name, phone, email, req.Company, req.Timezone, h.defaultTimezone, source, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}
	l.ConsentSMS = req.ConsentSMS
	l.ConsentEmail = req.ConsentEmail
	l.ConsentVoice = req.ConsentVoice

	if err := h.leads.Create(r.Context(), l); err != nil {
		writeError(w, err)
		return
	}

	go func(leadID string) {
		ctx, cancel := context.WithTimeout(context.Background(), h.backgroundTimeout)
		defer cancel()
		if err := h.orchestrator.Orchestrate(ctx, leadID); err != nil {
			h.logger.Error("first contact dispatch failed", "lead_id", leadID, "error", err)
		}
	}(l.ID)

	writeJSON(w, http.StatusCreated, createLeadResponse{ID: l.ID, Lead: l})
}

func (h *Handler) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(leads),
		"leads": leads,
	})
}

func (h *Handler) handleGetLead(w http.ResponseWriter, r *http.Request) {
	l, err := h.leads.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(msgs),
		"messages": msgs,
	})
}

type verifyRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if req.Phone == "" && req.Email == "" {
		writeValidationError(w, "provide at least one of phone, email")
		return
	}
	writeJSON(w, http.StatusOK, h.verifier.VerifyContact(r.Context(), req.Phone, req.Email))
}

type generateRequest struct {
	Vertical     string `json:"vertical" validate:"required"`
	Query        string `json:"query" validate:"required"`
	LocationText string `json:"location_text"`
	LatLng       string `json:"latlng"`
	Limit        int    `json:"limit" validate:"gte=0,lte=200"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	result, err := h.prospector.Generate(r.Context(), prospect.GenerateRequest{
		Vertical:     req.Vertical,
		Query:        req.Query,
		LocationText: req.LocationText,
		LatLng:       req.LatLng,
		Limit:        req.Limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidationError(w, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		writeValidationError(w, "upload a CSV file")
		return
	}

	result, err := h.importer.ImportCSV(r.Context(), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTwilioSMS accepts Twilio's form-encoded inbound SMS webhook. It
// always answers 200 OK; an unknown sender is acknowledged silently so the
// provider does not retry.
func (h *Handler) handleTwilioSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidationError(w, "invalid form body")
		return
	}
	from := r.PostForm.Get("From")
	body := strings.TrimSpace(r.PostForm.Get("Body"))

	if err := h.orchestrator.HandleInboundSMS(r.Context(), from, body); err != nil {
		h.logger.Error("inbound sms handling failed", "error", err)
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("OK"))
}

type inboundEmailRequest struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// handleInboundEmail accepts the SendGrid inbound-parse webhook payload.
func (h *Handler) handleInboundEmail(w http.ResponseWriter, r *http.Request) {
	var req inboundEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}

	if err := h.orchestrator.HandleInboundEmail(r.Context(), req.From, req.Subject, req.Text); err != nil {
		h.logger.Error("inbound email handling failed", "error", err)
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("OK"))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
