package usecase

import (
	"context"
	"testing"
	"time"

	"pulse-server/internal/delivery/http/middleware"
	"pulse-server/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB returns a *gorm.DB backed by sqlmock. The fake repositories
// never issue SQL through it; the usecases only thread it into repository
// calls, so no expectations are needed.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	sqlDB, _, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func authedContext(accountID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.AccountIDKey, accountID)
}

// fakeDoctorRepo

type fakeDoctorRepo struct {
	doctors      map[uuid.UUID]*entity.Doctor
	slotsWritten map[uuid.UUID]entity.StringList
	updateErr    error
}

func newFakeDoctorRepo(doctors ...*entity.Doctor) *fakeDoctorRepo {
	r := &fakeDoctorRepo{
		doctors:      map[uuid.UUID]*entity.Doctor{},
		slotsWritten: map[uuid.UUID]entity.StringList{},
	}
	for _, d := range doctors {
		r.doctors[d.ID] = d
	}
	return r
}

func (r *fakeDoctorRepo) Create(db *gorm.DB, doctor *entity.Doctor) error {
	if doctor.ID == (uuid.UUID{}) {
		doctor.ID = uuid.New()
	}
	r.doctors[doctor.ID] = doctor
	return nil
}

func (r *fakeDoctorRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	return r.doctors[id], nil
}

func (r *fakeDoctorRepo) FindByEmail(db *gorm.DB, email string) (*entity.Doctor, error) {
	for _, d := range r.doctors {
		if d.Email == email {
			return d, nil
		}
	}
	return nil, nil
}

func (r *fakeDoctorRepo) FindAllAvailable(db *gorm.DB) ([]entity.Doctor, error) {
	var out []entity.Doctor
	for _, d := range r.doctors {
		if d.Available {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDoctorRepo) Update(db *gorm.DB, doctor *entity.Doctor) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.doctors[doctor.ID] = doctor
	return nil
}

func (r *fakeDoctorRepo) UpdateSlots(db *gorm.DB, id uuid.UUID, slots entity.StringList) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.slotsWritten[id] = slots
	if d, ok := r.doctors[id]; ok {
		d.AvailableSlots = slots
	}
	return nil
}

func (r *fakeDoctorRepo) UpdatePassword(db *gorm.DB, id uuid.UUID, hashedPassword string) error {
	if d, ok := r.doctors[id]; ok {
		d.Password = hashedPassword
	}
	return nil
}

// fakeAppointmentRepo

type fakeAppointmentRepo struct {
	appointments []*entity.Appointment
	createErr    error
}

func (r *fakeAppointmentRepo) Create(db *gorm.DB, appointment *entity.Appointment) error {
	if r.createErr != nil {
		return r.createErr
	}
	if appointment.ID == (uuid.UUID{}) {
		appointment.ID = uuid.New()
	}
	r.appointments = append(r.appointments, appointment)
	return nil
}

func (r *fakeAppointmentRepo) FindByIDAndDoctor(db *gorm.DB, id, doctorID uuid.UUID) (*entity.Appointment, error) {
	for _, a := range r.appointments {
		if a.ID == id && a.DoctorID == doctorID {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) FindActiveBySlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, slot string) (*entity.Appointment, error) {
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.DateKey() == date.Format("2006-01-02") && a.AppointmentTime == slot && a.IsActive() {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) FindActiveTimes(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error) {
	var times []string
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.DateKey() == date.Format("2006-01-02") && a.IsActive() {
			times = append(times, a.AppointmentTime)
		}
	}
	return times, nil
}

func (r *fakeAppointmentRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.appointments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus, fields map[string]interface{}) error {
	for _, a := range r.appointments {
		if a.ID == id {
			a.Status = status
			if notes, ok := fields["doctor_notes"].(string); ok {
				a.DoctorNotes = notes
			}
			if prescription, ok := fields["prescription"].(string); ok {
				a.Prescription = prescription
			}
			return nil
		}
	}
	return nil
}

// fakeUserRepo

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(db *gorm.DB, user *entity.User) error {
	if user.ID == (uuid.UUID{}) {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(db *gorm.DB, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdatePassword(db *gorm.DB, id uuid.UUID, hashedPassword string) error {
	if u, ok := r.users[id]; ok {
		u.Password = hashedPassword
	}
	return nil
}

// fakeAuditService records actions without a database.

type fakeAuditService struct {
	actions []string
}

func (s *fakeAuditService) Record(db *gorm.DB, actorID *uuid.UUID, action string, metadata entity.JSON) {
	s.actions = append(s.actions, action)
}

// fakeLedger implements BookedSlotProvider backed by a static map keyed by
// doctorID:date.
type fakeLedger struct {
	booked map[string][]string
	err    error
}

func (l *fakeLedger) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.booked[doctorID.String()+":"+date.Format("2006-01-02")], nil
}

// fakeGuard tracks lock/invalidate traffic for booking tests.
type fakeGuard struct {
	locked      []string
	unlocked    int
	invalidated []string
}

func (g *fakeGuard) LockSlotDate(doctorID uuid.UUID, dateKey string) func() {
	g.locked = append(g.locked, doctorID.String()+":"+dateKey)
	return func() { g.unlocked++ }
}

func (g *fakeGuard) Invalidate(ctx context.Context, doctorID uuid.UUID, dateKey string) {
	g.invalidated = append(g.invalidated, doctorID.String()+":"+dateKey)
}

// fakeNotifier records confirmation sends.
type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) SendBookingConfirmation(appointment *entity.Appointment, doctorName string) {
	n.sent = append(n.sent, appointment.PatientEmail)
}
