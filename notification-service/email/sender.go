package email

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"

	"github.com/arunvm123/concertbooking/notification-service/config"
	"github.com/arunvm123/concertbooking/notification-service/model"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Sender interface {
	Send(ctx context.Context, msg model.EmailMessage) error
}

// NewSender returns an SMTP sender that falls back to logging, or a plain
// logging sender when SMTP is not configured.
func NewSender(cfg config.Email, logger *zap.Logger) Sender {
	logOnly := NewLogSender(logger)
	if !cfg.SMTPConfigured() {
		return logOnly
	}

	return &fallbackSender{
		primary:  NewSMTPSender(cfg, logger),
		fallback: logOnly,
		logger:   logger,
	}
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpSender struct {
	cfg      config.Email
	sendMail sendMailFunc
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewSMTPSender(cfg config.Email, logger *zap.Logger) Sender {
	return &smtpSender{
		cfg:      cfg,
		sendMail: smtp.SendMail,
		logger:   logger,
		tracer:   otel.Tracer("notification-service/email"),
	}
}

func (s *smtpSender) Send(ctx context.Context, msg model.EmailMessage) error {
	ctx, span := s.tracer.Start(ctx, "smtp.Send")
	defer span.End()

	span.SetAttributes(attribute.String("to.email", msg.To))

	from := mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromEmail}
	body, err := buildMessage(from, msg)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to build mail: %w", err)
	}

	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)

	logger.Info(ctx, s.logger, "Sending email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)

	if err := s.sendMail(addr, auth, s.cfg.FromEmail, []string{msg.To}, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "smtp send failed")
		return fmt.Errorf("failed to send mail: %w", err)
	}

	logger.Info(ctx, s.logger, "Email sent successfully", zap.String("to", msg.To))
	return nil
}

type logSender struct {
	logger *zap.Logger
}

// NewLogSender writes emails to the log instead of delivering them
func NewLogSender(logger *zap.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) Send(ctx context.Context, msg model.EmailMessage) error {
	logger.Info(ctx, s.logger, "Email logged instead of sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody),
	)
	return nil
}

type fallbackSender struct {
	primary  Sender
	fallback Sender
	logger   *zap.Logger
}

func (s *fallbackSender) Send(ctx context.Context, msg model.EmailMessage) error {
	err := s.primary.Send(ctx, msg)
	if err == nil {
		return nil
	}

	logger.Warn(ctx, s.logger, "Email delivery failed, falling back to log",
		zap.String("to", msg.To),
		zap.Error(err),
	)
	return s.fallback.Send(ctx, msg)
}

// buildMessage renders a multipart/alternative message with text and html parts
func buildMessage(from mail.Address, msg model.EmailMessage) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	}

	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	to := mail.Address{Address: msg.To}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from.String())
	fmt.Fprintf(&out, "To: %s\r\n", to.String())
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	out.WriteString("\r\n")
	out.Write(body.Bytes())

	return out.Bytes(), nil
}
