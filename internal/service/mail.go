package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/m-hollow/NoirDB/internal/logging"
	"github.com/rs/zerolog"
)

// Mailer 邮件发送
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SMTPMailer 通过 SMTP 发送纯文本邮件
type SMTPMailer struct {
	Host     string
	Port     string
	User     string
	Password string
	Timeout  time.Duration
}

// NewSMTPMailer 创建 SMTP 发送器
func NewSMTPMailer(host, port, user, password string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, User: user, Password: password, Timeout: 10 * time.Second}
}

// Send 发送邮件
func (m *SMTPMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if hasHeaderBreak(from) || hasHeaderBreak(to) || hasHeaderBreak(subject) {
		return ErrBadHeader
	}

	dialer := &net.Dialer{Timeout: m.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(m.Host, m.Port))
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.User != "" && m.Password != "" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
		if err := client.Auth(smtp.PlainAuth("", m.User, m.Password, m.Host)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := w.Write([]byte(buildMessage(from, to, subject, body))); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	_ = client.Quit()
	return nil
}

func buildMessage(from, to, subject, body string) string {
	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return msg.String()
}

func hasHeaderBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// ContactForm 联系表单
type ContactForm struct {
	FromEmail string `json:"from_email" form:"from_email" validate:"required,email"`
	Subject   string `json:"subject" form:"subject" validate:"required,max=200"`
	Message   string `json:"message" form:"message" validate:"required,max=5000"`
}

// ContactService 把联系表单转发给站点管理员
type ContactService struct {
	mailer    Mailer
	recipient string
	log       zerolog.Logger
}

// NewContactService 创建联系服务
func NewContactService(mailer Mailer, recipient string) *ContactService {
	return &ContactService{mailer: mailer, recipient: recipient, log: logging.Component("contact")}
}

// SendContact 校验并发送联系表单；邮件头含换行时返回 ErrBadHeader
func (s *ContactService) SendContact(ctx context.Context, form ContactForm) error {
	if hasHeaderBreak(form.Subject) || hasHeaderBreak(form.FromEmail) {
		return ErrBadHeader
	}
	if err := validateInput(form); err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, form.FromEmail, s.recipient, form.Subject, form.Message); err != nil {
		s.log.Error().Err(err).Str("from", form.FromEmail).Msg("contact mail failed")
		return fmt.Errorf("send contact mail: %w", err)
	}

	s.log.Info().Str("from", form.FromEmail).Msg("contact mail sent")
	return nil
}
