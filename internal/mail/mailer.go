// Package mail renders and delivers recommendation digest email over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/readalikeapp/readalike-server/internal/config"
	"github.com/readalikeapp/readalike-server/internal/domain"
)

// defaultSiteURL is used when no usable base URL is configured, so email
// links never point at localhost.
const defaultSiteURL = "https://greatmindsreadalike.org"

// Mailer delivers digest email. It implements service.DigestDispatcher.
// With SMTP disabled it logs each digest instead of delivering it, the way
// a console mail backend would.
type Mailer struct {
	cfg      config.SMTPConfig
	siteName string
	siteURL  string
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a mailer from the SMTP and server configuration.
func New(cfg config.SMTPConfig, server config.ServerConfig, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:      cfg,
		siteName: siteName(server),
		siteURL:  siteURL(server.BaseURL),
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

func siteName(server config.ServerConfig) string {
	if server.SiteName != "" {
		return server.SiteName
	}
	return "Great Minds Read Alike"
}

// siteURL normalizes the configured base URL: no trailing slash, and a
// sensible fallback when the value is empty or degenerate.
func siteURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" || strings.HasPrefix(base, "http:///") || strings.HasPrefix(base, "https:///") {
		return defaultSiteURL
	}
	return strings.TrimRight(base, "/")
}

// SendDigest renders and delivers one digest email.
func (m *Mailer) SendDigest(ctx context.Context, user *domain.User, unsubscribeToken string, books []*domain.Book, totalCount, additionalCount int) error {
	data := digestData{
		Name:               user.Name(),
		SiteName:           m.siteName,
		SiteURL:            m.siteURL,
		RecommendationsURL: m.siteURL + "/recommendations",
		UnsubscribeURL:     m.siteURL + "/api/v1/unsubscribe/" + unsubscribeToken,
		AdditionalCount:    additionalCount,
	}
	for _, b := range books {
		data.Books = append(data.Books, digestBook{Title: b.Title, Author: b.Author})
	}

	html, text, err := renderDigest(data)
	if err != nil {
		return err
	}

	if !m.cfg.Enabled {
		m.logger.Info("SMTP disabled, digest not delivered",
			"to", user.Email,
			"books", len(books),
			"total", totalCount,
		)
		return nil
	}

	msg := m.buildMessage(user.Email, digestSubject, html, text, data.UnsubscribeURL)
	if err := m.sendSMTP(ctx, user.Email, msg); err != nil {
		return fmt.Errorf("send digest to %s: %w", user.Email, err)
	}

	m.logger.Info("Digest email sent",
		"to", user.Email,
		"books", len(books),
		"additional", additionalCount,
	)
	return nil
}

// buildMessage assembles the RFC 5322 message. With both bodies present it
// builds a multipart/alternative; with only HTML it sends that alone.
func (m *Mailer) buildMessage(to, subject, html, text, unsubscribeURL string) string {
	var msg strings.Builder

	fromName := m.cfg.FromName
	if fromName == "" {
		fromName = m.siteName
	}

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, m.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("List-Unsubscribe: <%s>\r\n", unsubscribeURL))
	msg.WriteString("List-Unsubscribe-Post: List-Unsubscribe=One-Click\r\n")

	if text != "" {
		boundary := fmt.Sprintf("boundary_%d", time.Now().UnixNano())
		msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(text)
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(html)
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	} else {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(html)
	}

	return msg.String()
}

// sendSMTP delivers one message, with STARTTLS and AUTH PLAIN when
// configured.
func (m *Mailer) sendSMTP(ctx context.Context, to, msg string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}
	defer client.Close()

	if m.cfg.StartTLS {
		tlsConfig := &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("start TLS: %w", err)
		}
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("start message body: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish message body: %w", err)
	}

	// The message is already accepted at this point; a failed QUIT is not
	// a delivery failure.
	_ = client.Quit()
	return nil
}
