package verification

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bwbexpress/leadflow-backend/internal/domain/verification"
)

type staticResolver struct {
	records []*net.MX
	err     error
}

func (s *staticResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return s.records, s.err
}

func (s *staticResolver) HasMXRecords(ctx context.Context, domain string) bool {
	return s.err == nil && len(s.records) > 0
}

// smtpScript runs a one-connection SMTP server answering each client command
// with the next canned response. It records the client's commands.
type smtpScript struct {
	listener   net.Listener
	mu         sync.Mutex
	transcript []string
}

func newSMTPScript(t *testing.T, rcptResponse string) *smtpScript {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &smtpScript{listener: listener}
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		conn.Write([]byte("220 mx.test.local ESMTP\r\n"))
		reader := bufio.NewReader(conn)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			s.mu.Lock()
			s.transcript = append(s.transcript, line)
			s.mu.Unlock()

			switch {
			case strings.HasPrefix(line, "HELO"):
				conn.Write([]byte("250 mx.test.local\r\n"))
			case strings.HasPrefix(line, "MAIL FROM"):
				conn.Write([]byte("250 OK\r\n"))
			case strings.HasPrefix(line, "RCPT TO"):
				conn.Write([]byte(rcptResponse + "\r\n"))
			case strings.HasPrefix(line, "QUIT"):
				conn.Write([]byte("221 Bye\r\n"))
				return
			default:
				conn.Write([]byte("502 command not implemented\r\n"))
			}
		}
	}()

	return s
}

func (s *smtpScript) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.transcript...)
}

func newTestProbe(script *smtpScript) *SMTPProbe {
	probe := NewSMTPProbe(
		&staticResolver{records: []*net.MX{{Host: "mx.test.local.", Pref: 10}}},
		ProbeConfig{
			HELODomain:     "bwbexpress.com",
			MailFrom:       "verify@bwbexpress.com",
			ConnectTimeout: time.Second,
			ReadTimeout:    2 * time.Second,
		},
		nil,
	)
	probe.dialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return net.Dial(network, script.listener.Addr().String())
	}
	return probe
}

func TestProbeResponseMapping(t *testing.T) {
	tests := []struct {
		name       string
		rcptCode   string
		wantStatus domain.Status
		wantReason string
	}{
		{"mailbox accepted", "250 2.1.5 OK", domain.StatusValid, domain.ReasonSMTPOK},
		{"mailbox rejected", "550 5.1.1 no such user", domain.StatusInvalid, domain.ReasonSMTPNoMailbox},
		{"greylisted", "451 try again later", domain.StatusRisky, domain.ReasonSMTPUncertain},
		{"policy rejection", "554 denied", domain.StatusRisky, domain.ReasonSMTPUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := newSMTPScript(t, tt.rcptCode)
			probe := newTestProbe(script)

			status, reason := probe.Probe(context.Background(), "test.local", "user@test.local")

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestProbeHandshakeSequence(t *testing.T) {
	script := newSMTPScript(t, "250 OK")
	probe := newTestProbe(script)

	status, _ := probe.Probe(context.Background(), "test.local", "user@test.local")
	require.Equal(t, domain.StatusValid, status)

	// Give the QUIT write a moment to land on the script goroutine.
	assert.Eventually(t, func() bool {
		return len(script.commands()) == 4
	}, time.Second, 10*time.Millisecond)

	commands := script.commands()
	assert.Equal(t, "HELO bwbexpress.com", commands[0])
	assert.Equal(t, "MAIL FROM:<verify@bwbexpress.com>", commands[1])
	assert.Equal(t, "RCPT TO:<user@test.local>", commands[2])
	assert.Equal(t, "QUIT", commands[3])
}

func TestProbeResolverFailure(t *testing.T) {
	probe := NewSMTPProbe(&staticResolver{err: errors.New("servfail")}, ProbeConfig{}, nil)

	status, reason := probe.Probe(context.Background(), "test.local", "user@test.local")
	assert.Equal(t, domain.StatusUnknown, status)
	assert.Equal(t, "smtp_err:dns", reason)

	probe = NewSMTPProbe(&staticResolver{}, ProbeConfig{}, nil)
	status, reason = probe.Probe(context.Background(), "test.local", "user@test.local")
	assert.Equal(t, domain.StatusUnknown, status)
	assert.Equal(t, "smtp_err:dns", reason)
}

func TestProbeConnectionRefused(t *testing.T) {
	probe := NewSMTPProbe(
		&staticResolver{records: []*net.MX{{Host: "mx.test.local.", Pref: 10}}},
		ProbeConfig{ConnectTimeout: time.Second},
		nil,
	)
	probe.dialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	}

	status, reason := probe.Probe(context.Background(), "test.local", "user@test.local")
	assert.Equal(t, domain.StatusUnknown, status)
	assert.Equal(t, "smtp_err:connection_refused", reason)
}

func TestProbeStalledServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	// Accept and hold the connection without ever sending a banner.
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(2 * time.Second)
	}()

	probe := NewSMTPProbe(
		&staticResolver{records: []*net.MX{{Host: "mx.test.local.", Pref: 10}}},
		ProbeConfig{ConnectTimeout: time.Second, ReadTimeout: 100 * time.Millisecond},
		nil,
	)
	probe.dialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return net.Dial(network, listener.Addr().String())
	}

	status, reason := probe.Probe(context.Background(), "test.local", "user@test.local")
	assert.Equal(t, domain.StatusUnknown, status)
	assert.Equal(t, "smtp_err:timeout", reason)
}

func TestProbePicksLowestPreferenceExchanger(t *testing.T) {
	script := newSMTPScript(t, "250 OK")

	var dialed string
	probe := NewSMTPProbe(
		&staticResolver{records: []*net.MX{
			{Host: "primary.test.local.", Pref: 5},
			{Host: "backup.test.local.", Pref: 20},
		}},
		ProbeConfig{ConnectTimeout: time.Second, ReadTimeout: time.Second},
		nil,
	)
	probe.dialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialed = addr
		return net.Dial(network, script.listener.Addr().String())
	}

	status, _ := probe.Probe(context.Background(), "test.local", "user@test.local")
	assert.Equal(t, domain.StatusValid, status)
	assert.Equal(t, "primary.test.local:25", dialed)
}

func TestErrCause(t *testing.T) {
	assert.Equal(t, "timeout", errCause(context.DeadlineExceeded))
	assert.Equal(t, "canceled", errCause(context.Canceled))
	assert.Equal(t, "connection_refused", errCause(&net.OpError{Err: syscall.ECONNREFUSED}))
	assert.Equal(t, "dns", errCause(&net.DNSError{Err: "no such host"}))
	assert.Equal(t, "io", errCause(errors.New("boom")))
}
