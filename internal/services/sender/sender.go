// Package services содержит доставку почтовых уведомлений о платежах.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/vpn-storefront/internal/lib/sl"
	libsmtp "github.com/magabrotheeeer/vpn-storefront/internal/lib/smtp"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Transport описывает SMTP-транспорт для отправки писем.
type Transport interface {
	Connect() (libsmtp.Client, error)
	GetSMTPUser() string
}

// SenderService отправляет письма по событиям из очереди уведомлений.
type SenderService struct {
	transport Transport
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport Transport) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// HandlePaymentEvent разбирает событие платежа и отправляет письмо
// в зависимости от его исхода.
func (s *SenderService) HandlePaymentEvent(body []byte) error {
	var event models.NotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("Failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	var subject, bodyText string
	switch event.EventKind {
	case models.EventPaymentSucceeded:
		subject = "Подписка VPN продлена"
		bodyText = fmt.Sprintf(`Здравствуйте!

Оплата тарифа %s прошла успешно.
Подписка действует до %s.

Спасибо, что пользуетесь нашим сервисом.`,
			event.Data["plan"], event.Data["expires_at"])
	case models.EventPaymentFailed:
		subject = "Платёж не прошёл"
		bodyText = fmt.Sprintf(`Здравствуйте!

К сожалению, оплата тарифа %s не прошла.
Попробуйте ещё раз или выберите другой способ оплаты.`,
			event.Data["plan"])
	case models.EventPaymentCanceled:
		subject = "Платёж отменён"
		bodyText = fmt.Sprintf(`Здравствуйте!

Оплата тарифа %s была отменена.
Если вы не отменяли платёж, свяжитесь с поддержкой.`,
			event.Data["plan"])
	default:
		s.log.Warn("unknown notification event kind", slog.String("kind", event.EventKind))
		return nil
	}

	return s.sendEmail([]string{event.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
