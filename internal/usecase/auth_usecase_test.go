package usecase

import (
	"context"
	"testing"
	"time"

	"pulse-server/config"
	"pulse-server/internal/delivery/dto"
	"pulse-server/internal/domain/entity"
	"pulse-server/internal/service"
	"pulse-server/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	uc         AuthUsecase
	userRepo   *fakeUserRepo
	doctorRepo *fakeDoctorRepo
	jwtService *jwt.JWTService
	redis      *redis.Client
	mr         *miniredis.Miniredis
	audit      *fakeAuditService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	log := testLogger()
	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})
	userRepo := newFakeUserRepo()
	doctorRepo := newFakeDoctorRepo()
	otpService := service.NewOTPService(redisClient, log, 10*time.Minute)
	mailer := service.NewMailerService(config.SMTPConfig{}, log)
	audit := &fakeAuditService{}

	uc := NewAuthUsecase(newTestDB(t), log, userRepo, doctorRepo, jwtService, redisClient, otpService, mailer, audit)
	return &authFixture{
		uc:         uc,
		userRepo:   userRepo,
		doctorRepo: doctorRepo,
		jwtService: jwtService,
		redis:      redisClient,
		mr:         mr,
		audit:      audit,
	}
}

func TestRegisterPatient(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.uc.RegisterPatient(ctx, &dto.RegisterUserRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, user.ID)
	assert.Equal(t, []string{entity.AuditActionUserRegister}, f.audit.actions)

	// Password stored hashed, never plaintext
	stored, _ := f.userRepo.FindByEmail(nil, "asha@example.com")
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")))

	_, err = f.uc.RegisterPatient(ctx, &dto.RegisterUserRequest{
		Name:     "Other",
		Email:    "asha@example.com",
		Password: "different",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestRegisterDoctorDefaults(t *testing.T) {
	f := newAuthFixture(t)

	doctor, err := f.uc.RegisterDoctor(context.Background(), &dto.RegisterDoctorRequest{
		Name:     "Dr. Mehta",
		Email:    "mehta@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, "cardiologist", doctor.Specialization)
	assert.Equal(t, "MBBS", doctor.Degree)
	assert.Equal(t, "500", doctor.Fees.String())
	assert.True(t, doctor.Available)
	assert.Equal(t, []string(entity.DefaultWorkingDays), doctor.WorkingDays)
	// No configured slots yet; the default catalog materializes on first
	// availability read.
	assert.Empty(t, doctor.AvailableSlots)

	_, err = f.uc.RegisterDoctor(context.Background(), &dto.RegisterDoctorRequest{
		Name:           "Dr. X",
		Email:          "x@example.com",
		Password:       "secret123",
		Specialization: "astrologer",
	})
	assert.ErrorIs(t, err, ErrInvalidSpecialization)
}

func TestLoginAndLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.uc.RegisterPatient(ctx, &dto.RegisterUserRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("successful login allowlists the token", func(t *testing.T) {
		tokens, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "secret123"})
		require.NoError(t, err)
		require.NotEmpty(t, tokens.AccessToken)
		require.NotEmpty(t, tokens.RefreshToken)

		claims, err := f.jwtService.ValidateToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, jwt.RolePatient, claims.Role)

		exists, err := f.redis.Exists(ctx, "access_token:"+claims.AccountID.String()+":"+claims.TokenID).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)

		// Logout revokes the access token
		require.NoError(t, f.uc.Logout(ctx, claims.AccountID, claims.TokenID))
		exists, err = f.redis.Exists(ctx, "access_token:"+claims.AccountID.String()+":"+claims.TokenID).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(0), exists)
	})
}

func TestDoctorLoginRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.uc.RegisterDoctor(ctx, &dto.RegisterDoctorRequest{
		Name:     "Dr. Mehta",
		Email:    "mehta@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	tokens, err := f.uc.LoginDoctor(ctx, &dto.LoginRequest{Email: "mehta@example.com", Password: "secret123"})
	require.NoError(t, err)

	claims, err := f.jwtService.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, jwt.RoleDoctor, claims.Role)
}

func TestRefreshTokenRotation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.uc.RegisterPatient(ctx, &dto.RegisterUserRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	tokens, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := f.uc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// The old refresh token is single-use
	_, err = f.uc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// An access token is not a refresh token
	_, err = f.uc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.AccessToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.uc.RegisterPatient(ctx, &dto.RegisterUserRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	t.Run("unknown account", func(t *testing.T) {
		err := f.uc.SendResetOTP(ctx, service.OTPAudiencePatient, "nobody@example.com")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("full reset", func(t *testing.T) {
		require.NoError(t, f.uc.SendResetOTP(ctx, service.OTPAudiencePatient, "asha@example.com"))

		code, err := f.redis.Get(ctx, "otp:reset:patient:asha@example.com").Result()
		require.NoError(t, err)
		require.Len(t, code, 6)

		require.NoError(t, f.uc.VerifyResetOTP(ctx, service.OTPAudiencePatient, "asha@example.com", code))

		err = f.uc.ResetPassword(ctx, service.OTPAudiencePatient, &dto.ResetPasswordRequest{
			Email:       "asha@example.com",
			OTP:         code,
			NewPassword: "newsecret",
		})
		require.NoError(t, err)

		// OTP consumed
		err = f.uc.VerifyResetOTP(ctx, service.OTPAudiencePatient, "asha@example.com", code)
		assert.ErrorIs(t, err, service.ErrOTPInvalid)

		// Old password no longer works, new one does
		_, err = f.uc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = f.uc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "newsecret"})
		assert.NoError(t, err)
	})

	t.Run("wrong otp", func(t *testing.T) {
		require.NoError(t, f.uc.SendResetOTP(ctx, service.OTPAudiencePatient, "asha@example.com"))
		err := f.uc.ResetPassword(ctx, service.OTPAudiencePatient, &dto.ResetPasswordRequest{
			Email:       "asha@example.com",
			OTP:         "000000",
			NewPassword: "whatever",
		})
		assert.ErrorIs(t, err, service.ErrOTPInvalid)
	})
}

func TestResetRevokesTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.uc.RegisterPatient(ctx, &dto.RegisterUserRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	tokens, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
	claims, err := f.jwtService.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.uc.SendResetOTP(ctx, service.OTPAudiencePatient, "asha@example.com"))
	code, err := f.redis.Get(ctx, "otp:reset:patient:asha@example.com").Result()
	require.NoError(t, err)

	require.NoError(t, f.uc.ResetPassword(ctx, service.OTPAudiencePatient, &dto.ResetPasswordRequest{
		Email:       "asha@example.com",
		OTP:         code,
		NewPassword: "newsecret",
	}))

	exists, err := f.redis.Exists(ctx, "access_token:"+claims.AccountID.String()+":"+claims.TokenID).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
