package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// PaymentStatus is recorded on the appointment but never advanced by any
// flow in this service.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Gender values accepted on a booking.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Appointment represents a patient's claim on a doctor's slot for a date.
// Appointments are never physically deleted; cancellation is a status.
type Appointment struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID           uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	DoctorID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientName      string            `gorm:"type:varchar(255);not null" json:"patient_name"`
	PatientPhone     string            `gorm:"type:varchar(20);not null" json:"patient_phone"`
	PatientEmail     string            `gorm:"type:varchar(255);not null" json:"patient_email"`
	Age              int               `gorm:"not null" json:"age"`
	Gender           string            `gorm:"type:varchar(10);not null" json:"gender"`
	AppointmentDate  time.Time         `gorm:"type:date;not null;index:idx_appointments_doctor_date" json:"appointment_date"`
	AppointmentTime  string            `gorm:"type:varchar(5);not null" json:"appointment_time"`
	Symptoms         string            `gorm:"type:text" json:"symptoms,omitempty"`
	Status           AppointmentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ConsultationFees decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"consultation_fees"`
	PaymentStatus    PaymentStatus     `gorm:"type:varchar(10);not null;default:'pending'" json:"payment_status"`
	DoctorNotes      string            `gorm:"type:text" json:"doctor_notes,omitempty"`
	Prescription     string            `gorm:"type:text" json:"prescription,omitempty"`
	IsEmergency      bool              `gorm:"not null;default:false" json:"is_emergency"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Doctor Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// ActiveStatuses are the statuses that hold a slot against availability.
var ActiveStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
}

// IsValidStatus reports whether s names a known lifecycle state.
func IsValidStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// statusTransitions is the doctor-facing state machine. Cancelled and
// completed are terminal. A confirmed appointment cannot be cancelled
// through this surface.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted},
}

// CanTransition reports whether moving from the appointment's current
// status to target is a legal transition.
func (a *Appointment) CanTransition(target AppointmentStatus) bool {
	for _, next := range statusTransitions[a.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// IsActive reports whether the appointment currently holds its slot.
func (a *Appointment) IsActive() bool {
	return a.Status == AppointmentStatusPending || a.Status == AppointmentStatusConfirmed
}

// DateKey is the appointment date in the YYYY-MM-DD form used for slot
// ledger lookups and cache keys.
func (a *Appointment) DateKey() string {
	return a.AppointmentDate.Format("2006-01-02")
}
