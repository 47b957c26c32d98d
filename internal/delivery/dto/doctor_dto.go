package dto

import (
	"time"

	"pulse-server/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type UpdateDoctorProfileRequest struct {
	Name           string           `json:"name" validate:"required,min=2"`
	Phone          string           `json:"phone" validate:"required,min=7,max=20"`
	Specialization string           `json:"specialization" validate:"required"`
	Degree         string           `json:"degree" validate:"required"`
	Experience     int              `json:"experience" validate:"omitempty,gte=0"`
	Fees           *decimal.Decimal `json:"fees" validate:"omitempty"`
	Address        *entity.Address  `json:"address" validate:"omitempty"`
	WorkingDays    []string         `json:"working_days" validate:"omitempty"`
	Available      *bool            `json:"available" validate:"omitempty"`
	// Pointer distinguishes "not sent" (keep current) from "sent empty"
	// (rejected: a doctor must offer at least one slot).
	AvailableSlots *[]string `json:"available_slots" validate:"omitempty"`
}

// Response DTOs

type DoctorResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Specialization string          `json:"specialization"`
	Degree         string          `json:"degree"`
	Experience     int             `json:"experience"`
	Fees           decimal.Decimal `json:"fees"`
	Address        entity.Address  `json:"address"`
	Available      bool            `json:"available"`
	WorkingDays    []string        `json:"working_days"`
	AvailableSlots []string        `json:"available_slots"`
	Rating         float64         `json:"rating"`
	TotalReviews   int             `json:"total_reviews"`
	CreatedAt      time.Time       `json:"created_at"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Count   int              `json:"count"`
}
