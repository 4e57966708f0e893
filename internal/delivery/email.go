package delivery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/hvirtan/reportpipe/internal"
	"github.com/hvirtan/reportpipe/internal/store"
)

type smtpSendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailSender struct {
	send         smtpSendFunc
	sendSecure   smtpSendFunc
	dashboardURL string
}

func NewEmailSender(dashboardURL string) *EmailSender {
	return &EmailSender{
		send:         smtp.SendMail,
		sendSecure:   sendMailTLS,
		dashboardURL: strings.TrimRight(dashboardURL, "/"),
	}
}

// sendMailTLS is smtp.SendMail over an implicit-TLS connection (SMTPS,
// typically port 465), where the handshake happens before any SMTP
// traffic rather than via STARTTLS.
func sendMailTLS(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()
	if a != nil {
		if err := client.Auth(a); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *EmailSender) Send(
	ctx context.Context,
	rep *store.Report,
	pipelineName, configJSON string,
) error {
	conf, err := parseConfig[EmailConfig](store.ChannelEmail, configJSON)
	if err != nil {
		return err
	}
	if conf.SMTPHost == "" || len(conf.To) == 0 {
		return errors.New("email config requires smtpHost and at least one recipient")
	}

	subject := fmt.Sprintf(
		"[%s] %s - %s",
		internal.ProductName, pipelineName, time.Now().UTC().Format("2006-01-02"),
	)
	body := rep.ContentHTML
	if s.dashboardURL != "" {
		link := fmt.Sprintf(
			`<p><a href="%s/reports/%s">View in dashboard</a></p>`,
			s.dashboardURL, rep.ReportID,
		)
		if strings.Contains(body, "</body>") {
			body = strings.Replace(body, "</body>", link+"</body>", 1)
		} else {
			body += link
		}
	}
	msg := buildEmailMessage(conf.From, conf.To, subject, body)

	var auth smtp.Auth
	if conf.Username != "" {
		auth = smtp.PlainAuth("", conf.Username, conf.Password, conf.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", conf.SMTPHost, conf.SMTPPort)
	send := s.send
	if conf.Secure {
		send = s.sendSecure
	}
	if err := send(addr, auth, conf.From, conf.To, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func buildEmailMessage(from string, to []string, subject, htmlBody string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)
	return []byte(sb.String())
}
