package handler

import (
	"encoding/json"
	"net/http"

	"pulse-server/internal/delivery/dto"
	"pulse-server/internal/delivery/http/middleware"
	"pulse-server/internal/service"
	"pulse-server/internal/usecase"
	"pulse-server/pkg/response"
	"pulse-server/pkg/validator"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *validator.CustomValidator
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, validator *validator.CustomValidator) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		validator:   validator,
	}
}

func (h *AuthHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	user, err := h.authUsecase.RegisterPatient(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrEmailAlreadyExists:
			response.Error(w, http.StatusConflict, "Email already exists", nil)
		default:
			response.InternalServerError(w, "Failed to register user")
		}
		return
	}

	response.Success(w, http.StatusCreated, "User registered successfully", user)
}

func (h *AuthHandler) RegisterDoctor(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.authUsecase.RegisterDoctor(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrEmailAlreadyExists:
			response.Error(w, http.StatusConflict, "Email already exists", nil)
		case usecase.ErrInvalidSpecialization:
			response.Error(w, http.StatusBadRequest, "Invalid specialization", nil)
		default:
			response.InternalServerError(w, "Failed to register doctor")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Doctor registered successfully", doctor)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	tokens, err := h.authUsecase.Login(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidCredentials:
			response.Unauthorized(w, "Invalid email or password")
		default:
			response.InternalServerError(w, "Failed to login")
		}
		return
	}

	response.Success(w, http.StatusOK, "Login successful", tokens)
}

func (h *AuthHandler) LoginDoctor(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	tokens, err := h.authUsecase.LoginDoctor(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidCredentials:
			response.Unauthorized(w, "Invalid email or password")
		default:
			response.InternalServerError(w, "Failed to login")
		}
		return
	}

	response.Success(w, http.StatusOK, "Login successful", tokens)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}
	tokenID, ok := middleware.GetTokenIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	if err := h.authUsecase.Logout(r.Context(), accountID, tokenID); err != nil {
		response.InternalServerError(w, "Failed to logout")
		return
	}

	response.Success(w, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	tokens, err := h.authUsecase.RefreshToken(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidToken:
			response.Unauthorized(w, "Invalid or expired token")
		case usecase.ErrTokenRevoked:
			response.Unauthorized(w, "Token has been revoked")
		default:
			response.InternalServerError(w, "Failed to refresh token")
		}
		return
	}

	response.Success(w, http.StatusOK, "Token refreshed successfully", tokens)
}

func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	user, err := h.authUsecase.GetCurrentUser(r.Context(), userID)
	if err != nil {
		switch err {
		case usecase.ErrAccountNotFound:
			response.NotFound(w, "User not found")
		default:
			response.InternalServerError(w, "Failed to get user")
		}
		return
	}

	response.Success(w, http.StatusOK, "User retrieved successfully", user)
}

// sendResetOTP handles the audience-specific reset flows behind one body.
func (h *AuthHandler) sendResetOTP(audience string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.SendResetOTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}

		if err := h.validator.Validate(&req); err != nil {
			response.ValidationError(w, h.validator.FormatValidationErrors(err))
			return
		}

		if err := h.authUsecase.SendResetOTP(r.Context(), audience, req.Email); err != nil {
			switch err {
			case usecase.ErrAccountNotFound:
				response.NotFound(w, "Account not found")
			default:
				response.InternalServerError(w, "Failed to send OTP")
			}
			return
		}

		response.Success(w, http.StatusOK, "OTP sent to your email", nil)
	}
}

func (h *AuthHandler) verifyResetOTP(audience string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.VerifyResetOTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}

		if err := h.validator.Validate(&req); err != nil {
			response.ValidationError(w, h.validator.FormatValidationErrors(err))
			return
		}

		if err := h.authUsecase.VerifyResetOTP(r.Context(), audience, req.Email, req.OTP); err != nil {
			switch err {
			case service.ErrOTPInvalid:
				response.Error(w, http.StatusBadRequest, "Invalid or expired OTP", nil)
			default:
				response.InternalServerError(w, "Failed to verify OTP")
			}
			return
		}

		response.Success(w, http.StatusOK, "OTP verified successfully", nil)
	}
}

func (h *AuthHandler) resetPassword(audience string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.ResetPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}

		if err := h.validator.Validate(&req); err != nil {
			response.ValidationError(w, h.validator.FormatValidationErrors(err))
			return
		}

		if err := h.authUsecase.ResetPassword(r.Context(), audience, &req); err != nil {
			switch err {
			case service.ErrOTPInvalid:
				response.Error(w, http.StatusBadRequest, "Invalid or expired OTP", nil)
			case usecase.ErrAccountNotFound:
				response.NotFound(w, "Account not found")
			default:
				response.InternalServerError(w, "Failed to reset password")
			}
			return
		}

		response.Success(w, http.StatusOK, "Password reset successfully", nil)
	}
}

func (h *AuthHandler) SendResetOTPPatient(w http.ResponseWriter, r *http.Request) {
	h.sendResetOTP(service.OTPAudiencePatient)(w, r)
}

func (h *AuthHandler) SendResetOTPDoctor(w http.ResponseWriter, r *http.Request) {
	h.sendResetOTP(service.OTPAudienceDoctor)(w, r)
}

func (h *AuthHandler) VerifyResetOTPPatient(w http.ResponseWriter, r *http.Request) {
	h.verifyResetOTP(service.OTPAudiencePatient)(w, r)
}

func (h *AuthHandler) VerifyResetOTPDoctor(w http.ResponseWriter, r *http.Request) {
	h.verifyResetOTP(service.OTPAudienceDoctor)(w, r)
}

func (h *AuthHandler) ResetPasswordPatient(w http.ResponseWriter, r *http.Request) {
	h.resetPassword(service.OTPAudiencePatient)(w, r)
}

func (h *AuthHandler) ResetPasswordDoctor(w http.ResponseWriter, r *http.Request) {
	h.resetPassword(service.OTPAudienceDoctor)(w, r)
}
