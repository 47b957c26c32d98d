package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type BookAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" validate:"required"`
	PatientName     string    `json:"patient_name" validate:"required,min=2"`
	PatientPhone    string    `json:"patient_phone" validate:"required,min=7,max=20"`
	PatientEmail    string    `json:"patient_email" validate:"required,email"`
	Age             int       `json:"age" validate:"required,gte=1,lte=120"`
	Gender          string    `json:"gender" validate:"required,oneof=Male Female Other"`
	AppointmentDate string    `json:"appointment_date" validate:"required"` // Format: YYYY-MM-DD
	AppointmentTime string    `json:"appointment_time" validate:"required"` // Format: HH:MM
	Symptoms        string    `json:"symptoms" validate:"omitempty"`
	IsEmergency     bool      `json:"is_emergency"`
}

type UpdateAppointmentStatusRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" validate:"required"`
	Status        string    `json:"status" validate:"required"`
	DoctorNotes   string    `json:"doctor_notes" validate:"omitempty"`
	Prescription  string    `json:"prescription" validate:"omitempty"`
}

// Response DTOs

type AvailableSlotsResponse struct {
	AvailableSlots []string `json:"available_slots"`
	BookedSlots    []string `json:"booked_slots"`
	TotalSlots     int      `json:"total_slots"`
	AvailableCount int      `json:"available_count"`
}

type BookAppointmentResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

type AppointmentResponse struct {
	ID               uuid.UUID       `json:"id"`
	DoctorID         uuid.UUID       `json:"doctor_id"`
	DoctorName       string          `json:"doctor_name,omitempty"`
	PatientName      string          `json:"patient_name"`
	PatientPhone     string          `json:"patient_phone"`
	PatientEmail     string          `json:"patient_email"`
	Age              int             `json:"age"`
	Gender           string          `json:"gender"`
	AppointmentDate  string          `json:"appointment_date"`
	AppointmentTime  string          `json:"appointment_time"`
	Symptoms         string          `json:"symptoms,omitempty"`
	Status           string          `json:"status"`
	ConsultationFees decimal.Decimal `json:"consultation_fees"`
	PaymentStatus    string          `json:"payment_status"`
	DoctorNotes      string          `json:"doctor_notes,omitempty"`
	Prescription     string          `json:"prescription,omitempty"`
	IsEmergency      bool            `json:"is_emergency"`
	CreatedAt        time.Time       `json:"created_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Count        int                   `json:"count"`
}
