package service

import (
	"errors"
	"strings"

	"openbands/internal/pkg"
	"openbands/internal/repository/redis"
)

var (
	ErrEmailInvalid    = errors.New("invalid email address")
	ErrEmailFreeDomain = errors.New("a work email is required, not a personal one")
	ErrCodeMismatch    = errors.New("verification code mismatch")
)

// Personal providers rejected for the company badge pre-check.
var freeEmailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
	"icloud.com":  true,
	"proton.me":   true,
}

// EmailService runs the work-email verification that precedes the company
// badge attestation: a code is mailed to the address, and echoing it back
// confirms control of the domain.
type EmailService struct {
	cfg   pkg.SMTPConfig
	codes *redis.EmailRepository
}

func NewEmailService(cfg pkg.SMTPConfig) *EmailService {
	return &EmailService{
		cfg:   cfg,
		codes: &redis.EmailRepository{},
	}
}

// SendCode generates and mails a 6-digit code, storing it as pending.
func (s *EmailService) SendCode(email string) error {
	if _, err := workEmailDomain(email); err != nil {
		return err
	}

	code, err := pkg.RandDigits(6)
	if err != nil {
		return err
	}
	if err := s.codes.SetCodePending(email, code); err != nil {
		return err
	}

	body := pkg.EmailCodeHTML(code, redis.DefaultEmailCodeTTL)
	if err := pkg.SendEmail(s.cfg, email, "OpenBands work email verification", body); err != nil {
		// Don't leave an unreachable pending code around.
		_ = s.codes.DeleteCodePending(email)
		return err
	}
	return nil
}

// ConfirmCode compares the echoed code against the pending one and, on
// match, promotes it to confirmed.
func (s *EmailService) ConfirmCode(email, code string) error {
	pending, err := s.codes.GetCodePending(email)
	if err != nil {
		return err
	}
	if pending != code {
		return ErrCodeMismatch
	}
	return s.codes.MarkConfirmed(email)
}

func (s *EmailService) IsConfirmed(email string) (bool, error) {
	return s.codes.IsConfirmed(email)
}

func workEmailDomain(email string) (string, error) {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "", ErrEmailInvalid
	}
	domain := strings.ToLower(email[at+1:])
	if !strings.Contains(domain, ".") {
		return "", ErrEmailInvalid
	}
	if freeEmailDomains[domain] {
		return "", ErrEmailFreeDomain
	}
	return domain, nil
}
