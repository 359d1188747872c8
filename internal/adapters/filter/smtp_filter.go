package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// SMTPFilter implements a Postfix-style content filter: it receives messages
// over SMTP, runs detection, annotates the result headers and re-injects the
// message into Postfix.
type SMTPFilter struct {
	service        *core.DetectionService
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	blockPhishing  bool
	statusHeader   string
	summaryHeader  string
	urlsHeader     string
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	subjectPrefix  string
	modifySubject  bool
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	service *core.DetectionService,
	logger *zap.Logger,
	listenAddr string,
	blockPhishing bool,
	statusHeader string,
	summaryHeader string,
	urlsHeader string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *SMTPFilter {
	return &SMTPFilter{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		blockPhishing:  blockPhishing,
		statusHeader:   statusHeader,
		summaryHeader:  summaryHeader,
		urlsHeader:     urlsHeader,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		subjectPrefix:  subjectPrefix,
		modifySubject:  modifySubject,
	}
}

// Start starts the SMTP filter service
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP filter service
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail analyzes an email directly, bypassing the SMTP layer
func (f *SMTPFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.DetectionReport, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

// reinject sends the annotated message back to Postfix
func (f *SMTPFilter) reinject(sender string, recipients []string, data []byte) error {
	addr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		accepted = true
	}
	if !accepted {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data handles the message data
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	email, err := parseEmail(rawData)
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}
	if email.From == "" {
		email.From = s.sender
	}
	if len(email.To) == 0 {
		email.To = s.recipients
	}

	report, analysisErr := s.filter.service.AnalyzeEmail(context.Background(), email)
	if analysisErr != nil {
		s.filter.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", email.From))
	}

	if analysisErr == nil && report.Verdict.Suspicious && s.filter.blockPhishing {
		s.filter.logger.Info("Rejecting phishing email",
			zap.String("from", email.From),
			zap.String("summary", report.Verdict.ShortDescription))
		return fmt.Errorf("550 Rejected as phishing: %s", report.Verdict.ShortDescription)
	}

	if analysisErr == nil && report.Verdict.Suspicious && s.filter.modifySubject {
		rawData = tagSubject(rawData, s.filter.subjectPrefix)
	}
	annotated := s.annotate(rawData, report, analysisErr)

	if s.filter.postfixEnabled {
		if err := s.filter.reinject(s.sender, s.recipients, annotated); err != nil {
			s.filter.logger.Error("Failed to re-inject message into Postfix",
				zap.Error(err),
				zap.String("sender", email.From))
			return err
		}
	} else {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	if analysisErr == nil {
		s.filter.logger.Info("Processed email",
			zap.String("from", email.From),
			zap.Bool("suspicious", report.Verdict.Suspicious),
			zap.Int("urls_checked", report.URLVerdicts.Len()),
			zap.String("model", report.ModelUsed))
	}

	return nil
}

// annotate prepends the detection headers to the raw message, preserving
// the original headers and body bytes
func (s *smtpSession) annotate(raw []byte, report *core.DetectionReport, analysisErr error) []byte {
	var buf bytes.Buffer

	if analysisErr != nil {
		fmt.Fprintf(&buf, "X-Phishing-Analysis-Error: %s\r\n", sanitizeHeaderValue(analysisErr.Error()))
	} else {
		fmt.Fprintf(&buf, "%s: %t\r\n", s.filter.statusHeader, report.Verdict.Suspicious)
		fmt.Fprintf(&buf, "%s: %s\r\n", s.filter.summaryHeader, sanitizeHeaderValue(report.Verdict.ShortDescription))
		for _, url := range report.URLVerdicts.URLs() {
			verdict, _ := report.URLVerdicts.Get(url)
			fmt.Fprintf(&buf, "%s: %s => %s\r\n", s.filter.urlsHeader,
				sanitizeHeaderValue(url), sanitizeHeaderValue(verdict))
		}
	}

	buf.Write(raw)
	return buf.Bytes()
}

// tagSubject prepends the prefix to the Subject header within the raw
// message's header block. A message without a Subject header is left as is.
func tagSubject(raw []byte, prefix string) []byte {
	if prefix == "" {
		return raw
	}

	headerEnd := bytes.Index(raw, []byte("\r\n\r\n"))
	sep := []byte("\r\n")
	if headerEnd == -1 {
		headerEnd = bytes.Index(raw, []byte("\n\n"))
		sep = []byte("\n")
		if headerEnd == -1 {
			return raw
		}
	}

	lines := bytes.Split(raw[:headerEnd], sep)
	for i, line := range lines {
		if len(line) >= 8 && strings.EqualFold(string(line[:8]), "Subject:") {
			value := strings.TrimSpace(string(line[8:]))
			if !strings.HasPrefix(value, prefix) {
				lines[i] = []byte("Subject: " + prefix + " " + value)
			}
			break
		}
	}

	var buf bytes.Buffer
	buf.Write(bytes.Join(lines, sep))
	buf.Write(raw[headerEnd:])
	return buf.Bytes()
}

// sanitizeHeaderValue strips line breaks so verdict text cannot inject
// headers
func sanitizeHeaderValue(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.ReplaceAll(value, "\n", " ")
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
