package verification

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bwbexpress/leadflow-backend/internal/domain/verification"
	"github.com/bwbexpress/leadflow-backend/internal/metrics"
)

// SMTPProbe executes a deliverability handshake against a domain's best mail
// exchanger: banner, HELO, MAIL FROM, RCPT TO, QUIT. It aborts after the
// recipient-acceptance response and never sends DATA, so no mail is delivered.
type SMTPProbe struct {
	resolver       MXResolver
	heloDomain     string
	mailFrom       string
	port           int
	connectTimeout time.Duration
	readTimeout    time.Duration
	limiter        *rate.Limiter
	logger         *zap.Logger

	// dialFunc is swappable for tests.
	dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)
}

// ProbeConfig bundles SMTPProbe construction parameters.
type ProbeConfig struct {
	HELODomain      string
	MailFrom        string
	Port            int
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	ProbesPerSecond float64
}

// NewSMTPProbe builds a probe with bounded timeouts and a global rate limit
// so a burst of verifications cannot hammer remote exchangers.
func NewSMTPProbe(resolver MXResolver, cfg ProbeConfig, logger *zap.Logger) *SMTPProbe {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 8 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}

	limit := rate.Inf
	if cfg.ProbesPerSecond > 0 {
		limit = rate.Limit(cfg.ProbesPerSecond)
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &SMTPProbe{
		resolver:       resolver,
		heloDomain:     cfg.HELODomain,
		mailFrom:       cfg.MailFrom,
		port:           cfg.Port,
		connectTimeout: cfg.ConnectTimeout,
		readTimeout:    cfg.ReadTimeout,
		limiter:        rate.NewLimiter(limit, 1),
		logger:         logger,
		dialFunc:       dialer.DialContext,
	}
}

// Probe runs the handshake and maps the RCPT TO response code:
// 250* is valid, 550* is invalid, anything else is risky. Every network or
// protocol failure converts to the unknown outcome; nothing propagates as an
// error. The connection is released on every exit path.
func (p *SMTPProbe) Probe(ctx context.Context, domain, email string) (verification.Status, string) {
	started := time.Now()
	defer func() {
		metrics.ProbeDuration.Observe(time.Since(started).Seconds())
	}()

	if err := p.limiter.Wait(ctx); err != nil {
		return verification.StatusUnknown, verification.SMTPErrReason(errCause(err))
	}

	records, err := p.resolver.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		return verification.StatusUnknown, verification.SMTPErrReason("dns")
	}
	// Records arrive sorted by preference; take the best exchanger.
	host := strings.TrimSuffix(records[0].Host, ".")

	conn, err := p.dialFunc(ctx, "tcp", net.JoinHostPort(host, fmt.Sprintf("%d", p.port)))
	if err != nil {
		return verification.StatusUnknown, verification.SMTPErrReason(errCause(err))
	}
	defer conn.Close()

	// Greeting banner.
	if _, err := p.read(conn); err != nil {
		return verification.StatusUnknown, verification.SMTPErrReason(errCause(err))
	}

	if _, err := p.command(conn, "HELO "+p.heloDomain); err != nil {
		return verification.StatusUnknown, verification.SMTPErrReason(errCause(err))
	}

	if _, err := p.command(conn, "MAIL FROM:<"+p.mailFrom+">"); err != nil {
		return verification.StatusUnknown, verification.SMTPErrReason(errCause(err))
	}

	resp, err := p.command(conn, "RCPT TO:<"+email+">")
	if err != nil {
		return verification.StatusUnknown, verification.SMTPErrReason(errCause(err))
	}

	// Best effort; the verdict is already in hand.
	_ = p.write(conn, "QUIT")

	code := resp
	if len(code) > 3 {
		code = code[:3]
	}
	switch {
	case strings.HasPrefix(code, "250"):
		return verification.StatusValid, verification.ReasonSMTPOK
	case strings.HasPrefix(code, "550"):
		return verification.StatusInvalid, verification.ReasonSMTPNoMailbox
	default:
		p.logger.Debug("uncertain smtp response",
			zap.String("domain", domain),
			zap.String("code", code),
		)
		return verification.StatusRisky, verification.ReasonSMTPUncertain
	}
}

func (p *SMTPProbe) command(conn net.Conn, line string) (string, error) {
	if err := p.write(conn, line); err != nil {
		return "", err
	}
	return p.read(conn)
}

func (p *SMTPProbe) write(conn net.Conn, line string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(p.readTimeout)); err != nil {
		return err
	}
	_, err := conn.Write([]byte(line + "\r\n"))
	return err
}

// read performs one bounded read of the server response. Multiline responses
// are not reassembled; only the leading status code matters here.
func (p *SMTPProbe) read(conn net.Conn) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(p.readTimeout)); err != nil {
		return "", err
	}
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// errCause classifies a network error into a short machine string for the
// smtp_err / lookup_err reason suffix.
func errCause(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection_refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection_reset"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}

	return "io"
}
