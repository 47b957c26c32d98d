package repository

import (
	"pulse-server/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorRepository interface {
	Create(db *gorm.DB, doctor *entity.Doctor) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error)
	FindByEmail(db *gorm.DB, email string) (*entity.Doctor, error)
	FindAllAvailable(db *gorm.DB) ([]entity.Doctor, error)
	Update(db *gorm.DB, doctor *entity.Doctor) error
	UpdateSlots(db *gorm.DB, id uuid.UUID, slots entity.StringList) error
	UpdatePassword(db *gorm.DB, id uuid.UUID, hashedPassword string) error
}
