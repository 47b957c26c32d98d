package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Doctor represents a doctor account with its bookable slot configuration.
type Doctor struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Email          string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password       string          `gorm:"type:text;not null" json:"-"`
	Phone          string          `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Specialization string          `gorm:"type:varchar(50);not null;default:'cardiologist';index" json:"specialization"`
	Degree         string          `gorm:"type:varchar(100);not null;default:'MBBS'" json:"degree"`
	Experience     int             `gorm:"not null;default:0" json:"experience"`
	Fees           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:500" json:"fees"`
	Address        Address         `gorm:"type:jsonb" json:"address"`
	Available      bool            `gorm:"not null;default:true;index" json:"available"`
	WorkingDays    StringList      `gorm:"type:jsonb" json:"working_days"`
	AvailableSlots StringList      `gorm:"type:jsonb" json:"available_slots"`
	Rating         float64         `gorm:"type:decimal(2,1);not null;default:0" json:"rating"`
	TotalReviews   int             `gorm:"not null;default:0" json:"total_reviews"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"appointments,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// Specializations accepted for a doctor profile.
var Specializations = []string{
	"cardiologist",
	"Dermatologist",
	"Neurologist",
	"Gynecologist",
	"Eye Specialist",
	"Dentist",
	"Oncologist",
}

// DefaultWorkingDays is the schedule assigned to a new doctor.
var DefaultWorkingDays = StringList{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// DefaultSlots is the system-wide slot offering used when a doctor has not
// configured their own. The list is intentionally irregular (no 14:30);
// persisted doctor records already carry it in this exact shape.
var DefaultSlots = StringList{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "15:00", "15:30", "16:00", "16:30",
	"17:00", "17:30", "18:00",
}

// SlotCatalog returns the slot labels this doctor offers: the configured
// list when present, otherwise DefaultSlots. Configured lists are sorted on
// write, so the result is always in chronological (lexicographic) order.
func (d *Doctor) SlotCatalog() StringList {
	if len(d.AvailableSlots) > 0 {
		return d.AvailableSlots
	}
	return append(StringList{}, DefaultSlots...)
}

// HasSlot reports whether time label t is part of this doctor's catalog.
func (d *Doctor) HasSlot(t string) bool {
	for _, s := range d.SlotCatalog() {
		if s == t {
			return true
		}
	}
	return false
}

// IsValidSpecialization reports whether s is one of the accepted values.
func IsValidSpecialization(s string) bool {
	for _, v := range Specializations {
		if v == s {
			return true
		}
	}
	return false
}

// Address is the doctor's practice address, stored as JSONB.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// Value implements driver.Valuer.
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, a)
}

// StringList is an ordered list of strings stored as JSONB.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(l))
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	var result []string
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*l = StringList(result)
	return nil
}

// Sorted returns a sorted copy of the list.
func (l StringList) Sorted() StringList {
	out := append(StringList{}, l...)
	sort.Strings(out)
	return out
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
}
