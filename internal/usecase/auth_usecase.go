package usecase

import (
	"context"
	"errors"
	"fmt"

	"pulse-server/internal/converter"
	"pulse-server/internal/delivery/dto"
	"pulse-server/internal/domain/entity"
	"pulse-server/internal/domain/repository"
	"pulse-server/internal/service"
	"pulse-server/pkg/jwt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrAccountNotFound    = errors.New("account not found")
)

type AuthUsecase interface {
	RegisterPatient(ctx context.Context, req *dto.RegisterUserRequest) (*dto.UserResponse, error)
	RegisterDoctor(ctx context.Context, req *dto.RegisterDoctorRequest) (*dto.DoctorResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	LoginDoctor(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accountID uuid.UUID, tokenID string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	SendResetOTP(ctx context.Context, audience, email string) error
	VerifyResetOTP(ctx context.Context, audience, email, otp string) error
	ResetPassword(ctx context.Context, audience string, req *dto.ResetPasswordRequest) error
}

type authUsecase struct {
	db          *gorm.DB
	log         *logrus.Logger
	userRepo    repository.UserRepository
	doctorRepo  repository.DoctorRepository
	jwtService  *jwt.JWTService
	redisClient *redis.Client
	otpService  *service.OTPService
	mailer      *service.MailerService
	audit       service.AuditService
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	doctorRepo repository.DoctorRepository,
	jwtService *jwt.JWTService,
	redisClient *redis.Client,
	otpService *service.OTPService,
	mailer *service.MailerService,
	audit service.AuditService,
) AuthUsecase {
	return &authUsecase{
		db:          db,
		log:         log,
		userRepo:    userRepo,
		doctorRepo:  doctorRepo,
		jwtService:  jwtService,
		redisClient: redisClient,
		otpService:  otpService,
		mailer:      mailer,
		audit:       audit,
	}
}

func (u *authUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterUserRequest) (*dto.UserResponse, error) {
	existing, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), req.Email)
	if err != nil {
		u.log.Warnf("Failed to check existing user: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	if err := u.userRepo.Create(u.db.WithContext(ctx), user); err != nil {
		if isUniqueViolation(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	u.audit.Record(u.db.WithContext(ctx), &user.ID, entity.AuditActionUserRegister, entity.JSON{
		"email": user.Email,
	})
	u.mailer.SendWelcome(user.Name, user.Email)

	return &dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// RegisterDoctor creates a doctor account. Profile fields not supplied fall
// back to the registration defaults (cardiologist, MBBS, 500 fee, weekday
// working days, empty slot configuration meaning the system default
// catalog).
func (u *authUsecase) RegisterDoctor(ctx context.Context, req *dto.RegisterDoctorRequest) (*dto.DoctorResponse, error) {
	existing, err := u.doctorRepo.FindByEmail(u.db.WithContext(ctx), req.Email)
	if err != nil {
		u.log.Warnf("Failed to check existing doctor: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	specialization := req.Specialization
	if specialization == "" {
		specialization = "cardiologist"
	} else if !entity.IsValidSpecialization(specialization) {
		return nil, ErrInvalidSpecialization
	}

	degree := req.Degree
	if degree == "" {
		degree = "MBBS"
	}

	fees := decimal.NewFromInt(500)
	if req.Fees != nil {
		fees = *req.Fees
	}

	address := entity.Address{Country: "India"}
	if req.Address != nil {
		address = *req.Address
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	doctor := &entity.Doctor{
		Name:           req.Name,
		Email:          req.Email,
		Password:       string(hashedPassword),
		Phone:          req.Phone,
		Specialization: specialization,
		Degree:         degree,
		Experience:     req.Experience,
		Fees:           fees,
		Address:        address,
		Available:      true,
		WorkingDays:    append(entity.StringList{}, entity.DefaultWorkingDays...),
		AvailableSlots: entity.StringList{},
	}

	if err := u.doctorRepo.Create(u.db.WithContext(ctx), doctor); err != nil {
		if isUniqueViolation(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create doctor: %+v", err)
		return nil, err
	}

	u.audit.Record(u.db.WithContext(ctx), &doctor.ID, entity.AuditActionDoctorRegister, entity.JSON{
		"email": doctor.Email,
	})
	u.mailer.SendWelcome(doctor.Name, doctor.Email)

	return converter.DoctorToResponse(doctor), nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), req.Email)
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u.issueTokens(ctx, user.ID, user.Email, jwt.RolePatient)
}

func (u *authUsecase) LoginDoctor(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	doctor, err := u.doctorRepo.FindByEmail(u.db.WithContext(ctx), req.Email)
	if err != nil {
		u.log.Warnf("Failed to find doctor by email: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(doctor.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u.issueTokens(ctx, doctor.ID, doctor.Email, jwt.RoleDoctor)
}

func (u *authUsecase) issueTokens(ctx context.Context, accountID uuid.UUID, email, role string) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(accountID, email, role)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(accountID, email, role)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	accessKey := fmt.Sprintf("access_token:%s:%s", accountID.String(), accessTokenID)
	refreshKey := fmt.Sprintf("refresh_token:%s:%s", accountID.String(), refreshTokenID)

	if err := u.redisClient.Set(ctx, accessKey, "valid", u.jwtService.GetAccessExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}
	if err := u.redisClient.Set(ctx, refreshKey, "valid", u.jwtService.GetRefreshExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

func (u *authUsecase) Logout(ctx context.Context, accountID uuid.UUID, tokenID string) error {
	accessKey := fmt.Sprintf("access_token:%s:%s", accountID.String(), tokenID)
	if err := u.redisClient.Del(ctx, accessKey).Err(); err != nil {
		u.log.Warnf("Failed to delete access token: %+v", err)
		return err
	}
	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	refreshKey := fmt.Sprintf("refresh_token:%s:%s", claims.AccountID.String(), claims.TokenID)
	exists, err := u.redisClient.Exists(ctx, refreshKey).Result()
	if err != nil {
		u.log.Warnf("Failed to check refresh token in Redis: %+v", err)
		return nil, err
	}
	if exists == 0 {
		return nil, ErrTokenRevoked
	}

	// Rotate: the old refresh token is single-use.
	if err := u.redisClient.Del(ctx, refreshKey).Err(); err != nil {
		u.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, err
	}

	return u.issueTokens(ctx, claims.AccountID, claims.Email, claims.Role)
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	return &dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// SendResetOTP issues a reset code for an existing account and emails it.
func (u *authUsecase) SendResetOTP(ctx context.Context, audience, email string) error {
	if err := u.accountExists(ctx, audience, email); err != nil {
		return err
	}

	code, err := u.otpService.Issue(ctx, audience, email)
	if err != nil {
		return err
	}

	u.mailer.SendResetOTP(email, code)
	return nil
}

func (u *authUsecase) VerifyResetOTP(ctx context.Context, audience, email, otp string) error {
	return u.otpService.Verify(ctx, audience, email, otp)
}

// ResetPassword consumes the OTP, rewrites the password hash, and revokes
// every outstanding token for the account.
func (u *authUsecase) ResetPassword(ctx context.Context, audience string, req *dto.ResetPasswordRequest) error {
	if err := u.otpService.Consume(ctx, audience, req.Email, req.OTP); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return err
	}

	var accountID uuid.UUID
	switch audience {
	case service.OTPAudienceDoctor:
		doctor, err := u.doctorRepo.FindByEmail(u.db.WithContext(ctx), req.Email)
		if err != nil {
			return err
		}
		if doctor == nil {
			return ErrAccountNotFound
		}
		if err := u.doctorRepo.UpdatePassword(u.db.WithContext(ctx), doctor.ID, string(hashedPassword)); err != nil {
			u.log.Warnf("Failed to update doctor password: %+v", err)
			return err
		}
		accountID = doctor.ID
	default:
		user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), req.Email)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrAccountNotFound
		}
		if err := u.userRepo.UpdatePassword(u.db.WithContext(ctx), user.ID, string(hashedPassword)); err != nil {
			u.log.Warnf("Failed to update user password: %+v", err)
			return err
		}
		accountID = user.ID
	}

	u.revokeAllTokens(ctx, accountID)
	u.audit.Record(u.db.WithContext(ctx), &accountID, entity.AuditActionPasswordReset, entity.JSON{
		"email":    req.Email,
		"audience": audience,
	})
	return nil
}

func (u *authUsecase) accountExists(ctx context.Context, audience, email string) error {
	switch audience {
	case service.OTPAudienceDoctor:
		doctor, err := u.doctorRepo.FindByEmail(u.db.WithContext(ctx), email)
		if err != nil {
			return err
		}
		if doctor == nil {
			return ErrAccountNotFound
		}
	default:
		user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), email)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrAccountNotFound
		}
	}
	return nil
}

// revokeAllTokens drops every Redis-held token for an account. Best effort:
// a failure leaves tokens to expire on their own TTL.
func (u *authUsecase) revokeAllTokens(ctx context.Context, accountID uuid.UUID) {
	for _, pattern := range []string{
		fmt.Sprintf("access_token:%s:*", accountID.String()),
		fmt.Sprintf("refresh_token:%s:*", accountID.String()),
	} {
		keys, err := u.redisClient.Keys(ctx, pattern).Result()
		if err != nil {
			u.log.Warnf("Failed to list token keys %s (non-fatal): %+v", pattern, err)
			continue
		}
		if len(keys) > 0 {
			if err := u.redisClient.Del(ctx, keys...).Err(); err != nil {
				u.log.Warnf("Failed to revoke tokens for %s (non-fatal): %+v", accountID, err)
			}
		}
	}
}
