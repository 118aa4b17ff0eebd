package config

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// NewMailSender returns a function that sends one HTML email through cfg.
func NewMailSender(cfg SMTPConfig) func(to []string, subject, html string) error {
	return func(to []string, subject, html string) error {
		return SendMail(cfg, to, subject, html)
	}
}

func SendMail(cfg SMTPConfig, to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if cfg.Host == "" || cfg.From == "" {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	m := mail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := mail.NewDialer(cfg.Host, port, cfg.User, cfg.Pass)

	// STARTTLS is mandatory on 587 for Gmail/Office365 style relays.
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify, // dev only
	}

	return d.DialAndSend(m)
}
