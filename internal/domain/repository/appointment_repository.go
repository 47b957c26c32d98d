package repository

import (
	"time"

	"pulse-server/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByIDAndDoctor(db *gorm.DB, id, doctorID uuid.UUID) (*entity.Appointment, error)
	FindActiveBySlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error)
	FindActiveTimes(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	FindByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Appointment, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus, fields map[string]interface{}) error
}
