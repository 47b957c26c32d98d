package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	ErrOTPInvalid = errors.New("invalid or expired OTP")
)

// Audiences for OTP-backed password reset.
const (
	OTPAudiencePatient = "patient"
	OTPAudienceDoctor  = "doctor"
)

const otpKeyPrefix = "otp:reset:"

// OTPService issues and verifies password-reset OTPs. Codes live in Redis
// under a TTL so they survive process restarts and work across instances.
type OTPService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	expiry      time.Duration
}

func NewOTPService(redisClient *redis.Client, log *logrus.Logger, expiry time.Duration) *OTPService {
	return &OTPService{
		redisClient: redisClient,
		log:         log,
		expiry:      expiry,
	}
}

// Issue generates a 6-digit code for the audience/email pair and stores it
// with the configured TTL, replacing any previous code.
func (s *OTPService) Issue(ctx context.Context, audience, email string) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", err
	}

	key := otpKey(audience, email)
	if err := s.redisClient.Set(ctx, key, code, s.expiry).Err(); err != nil {
		s.log.Warnf("Failed to store OTP for %s: %+v", key, err)
		return "", err
	}

	return code, nil
}

// Verify checks the code without consuming it, so the UI can validate the
// OTP step before collecting the new password.
func (s *OTPService) Verify(ctx context.Context, audience, email, code string) error {
	stored, err := s.redisClient.Get(ctx, otpKey(audience, email)).Result()
	if err == redis.Nil {
		return ErrOTPInvalid
	}
	if err != nil {
		s.log.Warnf("Failed to read OTP for %s: %+v", email, err)
		return err
	}
	if stored != code {
		return ErrOTPInvalid
	}
	return nil
}

// Consume verifies the code and deletes it so it cannot be replayed.
func (s *OTPService) Consume(ctx context.Context, audience, email, code string) error {
	if err := s.Verify(ctx, audience, email, code); err != nil {
		return err
	}
	if err := s.redisClient.Del(ctx, otpKey(audience, email)).Err(); err != nil {
		s.log.Warnf("Failed to delete consumed OTP for %s (non-fatal): %+v", email, err)
	}
	return nil
}

func otpKey(audience, email string) string {
	return fmt.Sprintf("%s%s:%s", otpKeyPrefix, audience, email)
}

// generateOTP returns a random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
