package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"pulse-server/internal/converter"
	"pulse-server/internal/delivery/dto"
	"pulse-server/internal/delivery/http/middleware"
	"pulse-server/internal/domain/entity"
	"pulse-server/internal/domain/repository"
	"pulse-server/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorUnavailable   = errors.New("doctor is not available")
	ErrSlotNotOffered      = errors.New("selected time slot is not available")
	ErrSlotTaken           = errors.New("this time slot is already booked")
	ErrInvalidTime         = errors.New("invalid time format, use HH:MM")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// activeSlotConstraint is the partial unique index on live appointments;
// a violation means another request claimed the slot first.
const activeSlotConstraint = "uniq_active_appointment_slot"

type AppointmentUsecase interface {
	BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.BookAppointmentResponse, error)
	GetDoctorAppointments(ctx context.Context) (*dto.AppointmentListResponse, error)
	GetMyAppointments(ctx context.Context) (*dto.AppointmentListResponse, error)
	UpdateAppointmentStatus(ctx context.Context, req *dto.UpdateAppointmentStatusRequest) error
}

// SlotGuard serializes booking attempts per (doctor, date) and invalidates
// the booked-slot cache after a write.
type SlotGuard interface {
	LockSlotDate(doctorID uuid.UUID, dateKey string) func()
	Invalidate(ctx context.Context, doctorID uuid.UUID, dateKey string)
}

// Notifier is the outbound mail boundary; delivery is fire-and-forget.
type Notifier interface {
	SendBookingConfirmation(appointment *entity.Appointment, doctorName string)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	doctorRepo      repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
	slotGuard       SlotGuard
	auditService    service.AuditService
	notifier        Notifier
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	appointmentRepo repository.AppointmentRepository,
	slotGuard SlotGuard,
	auditService service.AuditService,
	notifier Notifier,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		slotGuard:       slotGuard,
		auditService:    auditService,
		notifier:        notifier,
	}
}

// BookAppointment claims a slot for the logged-in patient.
//
// Preconditions are checked in order, first failure wins, no effects before
// the insert: doctor exists, doctor accepts bookings, requested time is in
// the doctor's catalog, slot not already held by a live appointment.
//
// Two guards close the check-then-insert race: a per-(doctor, date) mutex
// serializes local requests, and the partial unique index on active
// appointments backstops across instances (23505 maps to ErrSlotTaken).
func (u *appointmentUsecase) BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.BookAppointmentResponse, error) {
	userID, ok := middleware.GetAccountIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	day, err := time.Parse("2006-01-02", req.AppointmentDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if _, err := time.Parse("15:04", req.AppointmentTime); err != nil {
		return nil, ErrInvalidTime
	}

	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	if !doctor.Available {
		return nil, ErrDoctorUnavailable
	}

	if !doctor.HasSlot(req.AppointmentTime) {
		return nil, ErrSlotNotOffered
	}

	dateKey := day.Format("2006-01-02")
	unlock := u.slotGuard.LockSlotDate(doctor.ID, dateKey)
	defer unlock()

	existing, err := u.appointmentRepo.FindActiveBySlot(u.db.WithContext(ctx), doctor.ID, day, req.AppointmentTime)
	if err != nil {
		u.log.Warnf("Failed to check slot %s %s for doctor %s: %+v", dateKey, req.AppointmentTime, doctor.ID, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlotTaken
	}

	appointment := &entity.Appointment{
		UserID:           userID,
		DoctorID:         doctor.ID,
		PatientName:      req.PatientName,
		PatientPhone:     req.PatientPhone,
		PatientEmail:     req.PatientEmail,
		Age:              req.Age,
		Gender:           req.Gender,
		AppointmentDate:  day,
		AppointmentTime:  req.AppointmentTime,
		Symptoms:         req.Symptoms,
		Status:           entity.AppointmentStatusPending,
		ConsultationFees: doctor.Fees,
		PaymentStatus:    entity.PaymentStatusPending,
		IsEmergency:      req.IsEmergency,
	}

	if err := u.appointmentRepo.Create(u.db.WithContext(ctx), appointment); err != nil {
		if isUniqueViolation(err, activeSlotConstraint) {
			return nil, ErrSlotTaken
		}
		u.log.Errorf("Failed to create appointment for doctor %s: %+v", doctor.ID, err)
		return nil, err
	}

	u.slotGuard.Invalidate(ctx, doctor.ID, dateKey)

	u.auditService.Record(u.db.WithContext(ctx), &userID, entity.AuditActionAppointmentBook, entity.JSON{
		"appointment_id": appointment.ID.String(),
		"doctor_id":      doctor.ID.String(),
		"date":           dateKey,
		"time":           req.AppointmentTime,
		"is_emergency":   req.IsEmergency,
	})

	u.notifier.SendBookingConfirmation(appointment, doctor.Name)

	u.log.Infof("Appointment booked: id=%s, doctor=%s, date=%s, time=%s", appointment.ID, doctor.ID, dateKey, req.AppointmentTime)
	return &dto.BookAppointmentResponse{AppointmentID: appointment.ID}, nil
}

// GetDoctorAppointments returns all appointments for the logged-in doctor,
// newest date first.
func (u *appointmentUsecase) GetDoctorAppointments(ctx context.Context) (*dto.AppointmentListResponse, error) {
	doctorID, ok := middleware.GetAccountIDFromContext(ctx)
	if !ok {
		return nil, errors.New("doctor not found in context")
	}

	appointments, err := u.appointmentRepo.FindByDoctorID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Count:        len(appointments),
	}, nil
}

// GetMyAppointments returns all appointments booked by the logged-in patient.
func (u *appointmentUsecase) GetMyAppointments(ctx context.Context) (*dto.AppointmentListResponse, error) {
	userID, ok := middleware.GetAccountIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	appointments, err := u.appointmentRepo.FindByUserID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for user %s: %+v", userID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Count:        len(appointments),
	}, nil
}

// UpdateAppointmentStatus drives the lifecycle state machine on behalf of
// the owning doctor. Lookup is scoped to the doctor, so someone else's
// appointment is indistinguishable from a missing one. Notes and
// prescription are only written when provided.
func (u *appointmentUsecase) UpdateAppointmentStatus(ctx context.Context, req *dto.UpdateAppointmentStatusRequest) error {
	doctorID, ok := middleware.GetAccountIDFromContext(ctx)
	if !ok {
		return errors.New("doctor not found in context")
	}

	status := entity.AppointmentStatus(req.Status)
	if !entity.IsValidStatus(status) {
		return ErrInvalidStatus
	}

	appointment, err := u.appointmentRepo.FindByIDAndDoctor(u.db.WithContext(ctx), req.AppointmentID, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", req.AppointmentID, err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}

	if !appointment.CanTransition(status) {
		return ErrInvalidTransition
	}

	fields := map[string]interface{}{}
	if req.DoctorNotes != "" {
		fields["doctor_notes"] = req.DoctorNotes
	}
	if req.Prescription != "" {
		fields["prescription"] = req.Prescription
	}

	if err := u.appointmentRepo.UpdateStatus(u.db.WithContext(ctx), appointment.ID, status, fields); err != nil {
		u.log.Warnf("Failed to update appointment %s status: %+v", appointment.ID, err)
		return err
	}

	// A cancellation frees the slot; drop the cached ledger for that date.
	if status == entity.AppointmentStatusCancelled {
		u.slotGuard.Invalidate(ctx, appointment.DoctorID, appointment.DateKey())
	}

	u.auditService.Record(u.db.WithContext(ctx), &doctorID, entity.AuditActionAppointmentStatus, entity.JSON{
		"appointment_id": appointment.ID.String(),
		"from":           string(appointment.Status),
		"to":             string(status),
	})

	u.log.Infof("Appointment %s status: %s -> %s", appointment.ID, appointment.Status, status)
	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint
// violation containing the specified constraint name
func isUniqueViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
