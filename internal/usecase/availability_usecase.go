package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"pulse-server/internal/delivery/dto"
	"pulse-server/internal/domain/entity"
	"pulse-server/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrInvalidDate    = errors.New("invalid date format, use YYYY-MM-DD")
)

type AvailabilityUsecase interface {
	GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error)
}

// BookedSlotProvider is the booking ledger read side: the time labels
// already committed for a doctor on a date.
type BookedSlotProvider interface {
	BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
}

type availabilityUsecase struct {
	db         *gorm.DB
	log        *logrus.Logger
	doctorRepo repository.DoctorRepository
	ledger     BookedSlotProvider
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	ledger BookedSlotProvider,
) AvailabilityUsecase {
	return &availabilityUsecase{
		db:         db,
		log:        log,
		doctorRepo: doctorRepo,
		ledger:     ledger,
	}
}

// GetAvailableSlots resolves a doctor's bookable slots for a date:
// catalog minus the booking ledger, both sides sorted. Slot labels are
// zero-padded HH:MM, so lexicographic order is chronological order.
func (u *availabilityUsecase) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	catalog := ensureCatalogInitialized(u.db.WithContext(ctx), u.log, u.doctorRepo, doctor)

	booked, err := u.ledger.BookedSlots(ctx, doctorID, day)
	if err != nil {
		u.log.Warnf("Failed to load booked slots for doctor %s on %s: %+v", doctorID, date, err)
		return nil, err
	}

	bookedSet := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		bookedSet[t] = struct{}{}
	}

	available := make([]string, 0, len(catalog))
	for _, slot := range catalog {
		if _, taken := bookedSet[slot]; !taken {
			available = append(available, slot)
		}
	}
	sort.Strings(available)

	uniqueBooked := make([]string, 0, len(bookedSet))
	for t := range bookedSet {
		uniqueBooked = append(uniqueBooked, t)
	}
	sort.Strings(uniqueBooked)

	return &dto.AvailableSlotsResponse{
		AvailableSlots: available,
		BookedSlots:    uniqueBooked,
		TotalSlots:     len(catalog),
		AvailableCount: len(available),
	}, nil
}

// ensureCatalogInitialized returns the doctor's slot catalog, materializing
// the system default onto the record the first time a doctor with no
// configured slots is resolved. The write failing does not fail the read.
func ensureCatalogInitialized(db *gorm.DB, log *logrus.Logger, doctorRepo repository.DoctorRepository, doctor *entity.Doctor) entity.StringList {
	catalog := doctor.SlotCatalog()
	if len(doctor.AvailableSlots) == 0 {
		if err := doctorRepo.UpdateSlots(db, doctor.ID, catalog); err != nil {
			log.Warnf("Failed to persist default slots for doctor %s (non-fatal): %+v", doctor.ID, err)
		} else {
			doctor.AvailableSlots = catalog
		}
	}
	return catalog
}
