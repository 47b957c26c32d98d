package usecase

import (
	"context"
	"errors"
	"time"

	"pulse-server/internal/converter"
	"pulse-server/internal/delivery/dto"
	"pulse-server/internal/delivery/http/middleware"
	"pulse-server/internal/domain/entity"
	"pulse-server/internal/domain/repository"
	"pulse-server/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidSpecialization = errors.New("invalid specialization")
	ErrEmptySlotList         = errors.New("please select at least one time slot")
)

type DoctorUsecase interface {
	GetDoctorData(ctx context.Context) (*dto.DoctorResponse, error)
	UpdateDoctorProfile(ctx context.Context, req *dto.UpdateDoctorProfileRequest) (*dto.DoctorResponse, error)
	GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
	GetDoctorByID(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
}

type doctorUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	doctorRepo   repository.DoctorRepository
	auditService service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:           db,
		log:          log,
		doctorRepo:   doctorRepo,
		auditService: auditService,
	}
}

func (u *doctorUsecase) GetDoctorData(ctx context.Context) (*dto.DoctorResponse, error) {
	doctorID, ok := middleware.GetAccountIDFromContext(ctx)
	if !ok {
		return nil, errors.New("doctor not found in context")
	}

	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorToResponse(doctor), nil
}

// UpdateDoctorProfile applies a profile update from the owning doctor.
// A slot list, when sent, must be non-empty, contain valid HH:MM labels,
// and is stored sorted so catalog reads need no re-sorting.
func (u *doctorUsecase) UpdateDoctorProfile(ctx context.Context, req *dto.UpdateDoctorProfileRequest) (*dto.DoctorResponse, error) {
	doctorID, ok := middleware.GetAccountIDFromContext(ctx)
	if !ok {
		return nil, errors.New("doctor not found in context")
	}

	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	if !entity.IsValidSpecialization(req.Specialization) {
		return nil, ErrInvalidSpecialization
	}

	doctor.Name = req.Name
	doctor.Phone = req.Phone
	doctor.Specialization = req.Specialization
	doctor.Degree = req.Degree
	doctor.Experience = req.Experience
	if req.Fees != nil {
		doctor.Fees = *req.Fees
	}
	if req.Address != nil {
		doctor.Address = *req.Address
	}
	if req.WorkingDays != nil {
		doctor.WorkingDays = entity.StringList(req.WorkingDays)
	}
	if req.Available != nil {
		doctor.Available = *req.Available
	}
	if req.AvailableSlots != nil {
		if len(*req.AvailableSlots) == 0 {
			return nil, ErrEmptySlotList
		}
		for _, slot := range *req.AvailableSlots {
			if _, err := time.Parse("15:04", slot); err != nil {
				return nil, ErrInvalidTime
			}
		}
		doctor.AvailableSlots = entity.StringList(*req.AvailableSlots).Sorted()
	}

	if err := u.doctorRepo.Update(u.db.WithContext(ctx), doctor); err != nil {
		u.log.Warnf("Failed to update doctor %s: %+v", doctorID, err)
		return nil, err
	}

	u.auditService.Record(u.db.WithContext(ctx), &doctorID, entity.AuditActionProfileUpdate, entity.JSON{
		"doctor_id": doctorID.String(),
	})

	return converter.DoctorToResponse(doctor), nil
}

// GetAllDoctors lists doctors currently accepting bookings, for the public
// browse surface.
func (u *doctorUsecase) GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindAllAvailable(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to list doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToPublicResponses(doctors),
		Count:   len(doctors),
	}, nil
}

func (u *doctorUsecase) GetDoctorByID(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorToPublicResponse(doctor), nil
}
