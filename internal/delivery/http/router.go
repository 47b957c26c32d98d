package http

import (
	"net/http"

	"pulse-server/internal/delivery/http/handler"
	"pulse-server/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router             *mux.Router
	authHandler        *handler.AuthHandler
	doctorHandler      *handler.DoctorHandler
	appointmentHandler *handler.AppointmentHandler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	doctorHandler *handler.DoctorHandler,
	appointmentHandler *handler.AppointmentHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:             mux.NewRouter(),
		authHandler:        authHandler,
		doctorHandler:      doctorHandler,
		appointmentHandler: appointmentHandler,
		authMiddleware:     authMiddleware,
		corsMiddleware:     corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/doctor-register", r.authHandler.RegisterDoctor).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/doctor-login", r.authHandler.LoginDoctor).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Password reset (public, per audience)
	auth.HandleFunc("/send-reset-otp", r.authHandler.SendResetOTPPatient).Methods(http.MethodPost)
	auth.HandleFunc("/verify-reset-otp", r.authHandler.VerifyResetOTPPatient).Methods(http.MethodPost)
	auth.HandleFunc("/reset-password", r.authHandler.ResetPasswordPatient).Methods(http.MethodPost)
	auth.HandleFunc("/doctor/send-reset-otp", r.authHandler.SendResetOTPDoctor).Methods(http.MethodPost)
	auth.HandleFunc("/doctor/verify-reset-otp", r.authHandler.VerifyResetOTPDoctor).Methods(http.MethodPost)
	auth.HandleFunc("/doctor/reset-password", r.authHandler.ResetPasswordDoctor).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)

	// Public doctor listing and availability
	api.HandleFunc("/doctors", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	api.HandleFunc("/appointments/available-slots", r.appointmentHandler.GetAvailableSlots).Methods(http.MethodGet)

	// Patient routes
	patient := api.PathPrefix("").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Use(middleware.RequirePatient)
	patient.HandleFunc("/users/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)
	patient.HandleFunc("/appointments/book", r.appointmentHandler.BookAppointment).Methods(http.MethodPost)
	patient.HandleFunc("/appointments/my", r.appointmentHandler.GetMyAppointments).Methods(http.MethodGet)

	// Doctor routes
	doctor := api.PathPrefix("").Subrouter()
	doctor.Use(r.authMiddleware.Authenticate)
	doctor.Use(middleware.RequireDoctor)
	doctor.HandleFunc("/doctors/me", r.doctorHandler.GetDoctorData).Methods(http.MethodGet)
	doctor.HandleFunc("/doctors/me", r.doctorHandler.UpdateDoctorProfile).Methods(http.MethodPut)
	doctor.HandleFunc("/appointments/doctor", r.appointmentHandler.GetDoctorAppointments).Methods(http.MethodGet)
	doctor.HandleFunc("/appointments/update-status", r.appointmentHandler.UpdateAppointmentStatus).Methods(http.MethodPost)

	// Registered after /doctors/me so the literal segment wins over the ID.
	api.HandleFunc("/doctors/{doctorId}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
