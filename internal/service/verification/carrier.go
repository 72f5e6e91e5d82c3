package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/bwbexpress/leadflow-backend/internal/domain/verification"
)

// Confidence constants for carrier lookups. VOIP lines are inherently less
// trustworthy for outreach compliance, so their confidence is capped.
const (
	carrierValidConfidence   = 0.9
	carrierInvalidConfidence = 0.2
	carrierVOIPCap           = 0.6
	carrierErrorConfidence   = 0.4
)

// CarrierClient queries a Twilio-style phone lookup service over HTTP with
// basic authentication.
type CarrierClient struct {
	baseURL    string
	accountSID string
	authToken  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCarrierClient builds a lookup client with a bounded request timeout.
func NewCarrierClient(baseURL, accountSID, authToken string, timeout time.Duration, logger *zap.Logger) *CarrierClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &CarrierClient{
		baseURL:    baseURL,
		accountSID: accountSID,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Lookup queries line type and validity for an E.164 number. HTTP status
// below 400 reads as valid, anything else as invalid; transport failures
// degrade to the unknown outcome.
func (c *CarrierClient) Lookup(ctx context.Context, e164 string) verification.Result {
	lookupURL := fmt.Sprintf("%s/%s?Type=carrier,caller-name", c.baseURL, url.PathEscape(e164))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return verification.NewResult(verification.StatusUnknown,
			verification.LookupErrReason("bad_request"), carrierErrorConfidence)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("carrier lookup failed",
			zap.String("phone", e164),
			zap.Error(err),
		)
		return verification.NewResult(verification.StatusUnknown,
			verification.LookupErrReason(errCause(err)), carrierErrorConfidence)
	}
	defer resp.Body.Close()

	status := verification.StatusValid
	confidence := carrierValidConfidence
	if resp.StatusCode >= 400 {
		status = verification.StatusInvalid
		confidence = carrierInvalidConfidence
	}

	var raw map[string]any
	var lineType string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err == nil {
		if carrier, ok := raw["carrier"].(map[string]any); ok {
			lineType, _ = carrier["type"].(string)
		}
	}

	if lineType == "voip" && confidence > carrierVOIPCap {
		confidence = carrierVOIPCap
	}

	return verification.NewResult(status, verification.LineTypeReason(lineType), confidence).WithRaw(raw)
}
