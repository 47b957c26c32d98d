package converter

import (
	"pulse-server/internal/delivery/dto"
	"pulse-server/internal/domain/entity"

	"github.com/google/uuid"
)

// AppointmentToResponse converts an Appointment entity to its DTO projection
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:               appointment.ID,
		DoctorID:         appointment.DoctorID,
		PatientName:      appointment.PatientName,
		PatientPhone:     appointment.PatientPhone,
		PatientEmail:     appointment.PatientEmail,
		Age:              appointment.Age,
		Gender:           appointment.Gender,
		AppointmentDate:  appointment.DateKey(),
		AppointmentTime:  appointment.AppointmentTime,
		Symptoms:         appointment.Symptoms,
		Status:           string(appointment.Status),
		ConsultationFees: appointment.ConsultationFees,
		PaymentStatus:    string(appointment.PaymentStatus),
		DoctorNotes:      appointment.DoctorNotes,
		Prescription:     appointment.Prescription,
		IsEmergency:      appointment.IsEmergency,
		CreatedAt:        appointment.CreatedAt,
	}

	if appointment.Doctor.ID != (uuid.UUID{}) {
		response.DoctorName = appointment.Doctor.Name
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		resp := AppointmentToResponse(&appointment)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
