package service

import (
	"fmt"

	"pulse-server/config"
	"pulse-server/internal/domain/entity"

	"github.com/go-gomail/gomail"
	"github.com/sirupsen/logrus"
)

// MailerService sends transactional email over SMTP. Every caller treats
// delivery as fire-and-forget: failures are logged and never abort the
// operation that triggered them.
type MailerService struct {
	cfg config.SMTPConfig
	log *logrus.Logger
}

func NewMailerService(cfg config.SMTPConfig, log *logrus.Logger) *MailerService {
	return &MailerService{cfg: cfg, log: log}
}

// SendWelcome greets a newly registered account.
func (s *MailerService) SendWelcome(name, email string) {
	body := fmt.Sprintf(
		"Welcome to PULSE medical platform, %s. Your account has been created with email id: %s",
		name, email,
	)
	s.send(email, "Welcome to PULSE Medical Platform", body)
}

// SendBookingConfirmation notifies the patient of a successful booking.
func (s *MailerService) SendBookingConfirmation(appointment *entity.Appointment, doctorName string) {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour appointment with Dr. %s on %s at %s has been booked and is awaiting confirmation.\n\nConsultation fees: %s",
		appointment.PatientName,
		doctorName,
		appointment.DateKey(),
		appointment.AppointmentTime,
		appointment.ConsultationFees.StringFixed(2),
	)
	s.send(appointment.PatientEmail, "Appointment Booked - PULSE", body)
}

// SendResetOTP delivers a password-reset code.
func (s *MailerService) SendResetOTP(email, code string) {
	body := fmt.Sprintf(
		"Your OTP for resetting your password is %s. Use this OTP to proceed with resetting your password.",
		code,
	)
	s.send(email, "Password Reset OTP - PULSE", body)
}

func (s *MailerService) send(to, subject, body string) {
	go func() {
		m := gomail.NewMessage()
		m.SetHeader("From", s.cfg.Sender)
		m.SetHeader("To", to)
		m.SetHeader("Subject", subject)
		m.SetBody("text/plain", body)

		d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Sender, s.cfg.Password)
		if err := d.DialAndSend(m); err != nil {
			s.log.Warnf("Failed to send email to %s (non-fatal): %+v", to, err)
			return
		}
		s.log.Debugf("Email sent to %s: %s", to, subject)
	}()
}
