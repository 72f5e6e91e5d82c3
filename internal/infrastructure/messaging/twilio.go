package messaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
)

// TwilioSMSSender dispatches SMS through the Twilio Messages API.
type TwilioSMSSender struct {
	apiURL     string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewTwilioSMSSender(apiURL, accountSID, authToken, from string, timeout time.Duration, logger *zap.Logger) *TwilioSMSSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &TwilioSMSSender{
		apiURL:     apiURL,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SendSMS posts one message. Without configured credentials it logs the
// message instead of sending, so local runs behave as a dry-run.
func (s *TwilioSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if s.accountSID == "" || s.authToken == "" {
		s.logger.Info("sms dry-run: no twilio credentials configured",
			zap.String("to", to),
			zap.String("body", body),
		)
		return nil
	}

	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.apiURL, url.PathEscape(s.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domainErrors.NewExternalError("TWILIO", "sms send failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("twilio rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", string(detail)),
		)
		return domainErrors.NewExternalError("TWILIO",
			fmt.Sprintf("sms send rejected with status %d", resp.StatusCode))
	}
	return nil
}
