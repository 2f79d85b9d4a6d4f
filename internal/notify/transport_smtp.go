package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
)

// SMTPConfig carries the SMTP transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
}

func (c SMTPConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("smtp_host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("smtp_port must be between 1 and 65535")
	}
	if !isValidEmail(c.From) {
		return fmt.Errorf("invalid 'from' email address: %s", c.From)
	}
	return nil
}

// SMTPTransport delivers messages over plain SMTP or STARTTLS.
type SMTPTransport struct {
	config SMTPConfig
}

func NewSMTPTransport(config SMTPConfig) (*SMTPTransport, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &SMTPTransport{config: config}, nil
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	raw, err := buildMIME(t.config.From, msg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", t.config.Host, t.config.Port)

	var auth smtp.Auth
	if t.config.Username != "" && t.config.Password != "" {
		auth = smtp.PlainAuth("", t.config.Username, t.config.Password, t.config.Host)
	}

	if t.config.UseTLS {
		return t.sendWithTLS(addr, auth, t.config.From, []string{msg.Recipient}, raw)
	}

	return smtp.SendMail(addr, auth, t.config.From, []string{msg.Recipient}, raw)
}

func (t *SMTPTransport) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName:         t.config.Host,
		InsecureSkipVerify: false,
	}

	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}

	if _, err = w.Write(raw); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
