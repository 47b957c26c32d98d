package converter

import (
	"pulse-server/internal/delivery/dto"
	"pulse-server/internal/domain/entity"
)

// DoctorToResponse converts a Doctor entity to its private (owner-facing)
// DTO, including the contact email.
func DoctorToResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:             doctor.ID,
		Name:           doctor.Name,
		Email:          doctor.Email,
		Phone:          doctor.Phone,
		Specialization: doctor.Specialization,
		Degree:         doctor.Degree,
		Experience:     doctor.Experience,
		Fees:           doctor.Fees,
		Address:        doctor.Address,
		Available:      doctor.Available,
		WorkingDays:    doctor.WorkingDays,
		AvailableSlots: doctor.AvailableSlots,
		Rating:         doctor.Rating,
		TotalReviews:   doctor.TotalReviews,
		CreatedAt:      doctor.CreatedAt,
	}
}

// DoctorToPublicResponse strips contact details for the public listing.
func DoctorToPublicResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	response := DoctorToResponse(doctor)
	if response == nil {
		return nil
	}
	response.Email = ""
	response.Phone = ""
	return response
}

// DoctorsToPublicResponses converts a slice of Doctor entities for listing
func DoctorsToPublicResponses(doctors []entity.Doctor) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i, doctor := range doctors {
		resp := DoctorToPublicResponse(&doctor)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
