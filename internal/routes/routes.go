package routes

import (
	"clinic-ehr-server/internal/audit"
	"clinic-ehr-server/internal/authz"
	"clinic-ehr-server/internal/config"
	"clinic-ehr-server/internal/handlers"
	"clinic-ehr-server/internal/middleware"
	"clinic-ehr-server/internal/models"
	"clinic-ehr-server/internal/reports"
	"clinic-ehr-server/internal/store"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, st *store.Store, gate *authz.Gate, eng *reports.Engine, log *audit.Log, settings *config.Settings, cfg *config.Config) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(st, cfg, log)
	userHandler := handlers.NewUserHandler(st, log)
	patientHandler := handlers.NewPatientHandler(st, gate, log)
	doctorHandler := handlers.NewDoctorHandler(st, log)
	medicalRecordHandler := handlers.NewMedicalRecordHandler(st, gate, log)
	prescriptionHandler := handlers.NewPrescriptionHandler(st, gate, log)
	labTestHandler := handlers.NewLabTestHandler(st, gate, log)
	appointmentHandler := handlers.NewAppointmentHandler(st, gate, log)
	adminHandler := handlers.NewAdminHandler(st, eng, log, settings)
	preferenceHandler := handlers.NewPreferenceHandler(st)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Per-user preferences
		preferenceRoutes := private.Group("/preferences")
		{
			preferenceRoutes.GET("", preferenceHandler.GetPreferences)
			preferenceRoutes.PUT("", preferenceHandler.UpdatePreferences)
		}

		// User management routes (admin, plus the shared doctor listing)
		userRoutes := private.Group("/users")
		{
			// Doctor accounts, accessible to all authenticated users for booking
			userRoutes.GET("/doctors", userHandler.GetDoctorUsers)

			adminUserRoutes := userRoutes.Group("")
			adminUserRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminUserRoutes.POST("", userHandler.CreateUser)
				adminUserRoutes.GET("", userHandler.GetUsers)
				adminUserRoutes.GET("/:id", userHandler.GetUserByID)
				adminUserRoutes.PUT("/:id", userHandler.UpdateUser)
				adminUserRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Patient profile routes
		patientRoutes := private.Group("/patients")
		{
			patientRoutes.GET("/me", patientHandler.GetOwnPatientProfile)
			patientRoutes.GET("", patientHandler.GetPatients)          // doctors and admins (gate)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)   // patients see only their own (gate)
			patientRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor), patientHandler.CreatePatient)
			patientRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor), patientHandler.UpdatePatient)
			patientRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), patientHandler.DeletePatient)
		}

		// Doctor profile routes
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id", doctorHandler.GetDoctorByID)

			adminDoctorRoutes := doctorRoutes.Group("")
			adminDoctorRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminDoctorRoutes.POST("", doctorHandler.CreateDoctor)
				adminDoctorRoutes.PUT("/:id", doctorHandler.UpdateDoctor)
				adminDoctorRoutes.DELETE("/:id", doctorHandler.DeleteDoctor)
			}
		}

		// Medical record routes
		medicalRecordRoutes := private.Group("/medical-records")
		{
			medicalRecordRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), medicalRecordHandler.CreateMedicalRecord)
			medicalRecordRoutes.GET("/mine", medicalRecordHandler.GetOwnMedicalRecords)
			medicalRecordRoutes.GET("/patient/:patientId", medicalRecordHandler.GetMedicalRecordsForPatient)
			medicalRecordRoutes.GET("/:id", medicalRecordHandler.GetMedicalRecordByID)
			medicalRecordRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), medicalRecordHandler.UpdateMedicalRecord)
			medicalRecordRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), medicalRecordHandler.DeleteMedicalRecord)

			// Children scoped to a record
			medicalRecordRoutes.GET("/:id/prescriptions", prescriptionHandler.GetPrescriptionsForRecord)
			medicalRecordRoutes.GET("/:id/lab-tests", labTestHandler.GetLabTestsForRecord)
		}

		// Prescription routes
		prescriptionRoutes := private.Group("/prescriptions")
		{
			prescriptionRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), prescriptionHandler.CreatePrescription)
			prescriptionRoutes.GET("/patient/:patientId", prescriptionHandler.GetPrescriptionsForPatient)
			prescriptionRoutes.GET("/:id", prescriptionHandler.GetPrescriptionByID)
			prescriptionRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), prescriptionHandler.UpdatePrescription)
			prescriptionRoutes.PATCH("/:id/status", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), prescriptionHandler.UpdatePrescriptionStatus)
			prescriptionRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), prescriptionHandler.DeletePrescription)
		}

		// Lab test routes
		labTestRoutes := private.Group("/lab-tests")
		{
			labTestRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), labTestHandler.CreateLabTest)
			labTestRoutes.GET("/patient/:patientId", labTestHandler.GetLabTestsForPatient)
			labTestRoutes.GET("/:id", labTestHandler.GetLabTestByID)
			labTestRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), labTestHandler.UpdateLabTest)
			labTestRoutes.PATCH("/:id/status", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), labTestHandler.UpdateLabTestStatus)
			labTestRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), labTestHandler.DeleteLabTest)
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), appointmentHandler.DeleteAppointment)
		}

		// Admin dashboard routes
		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.GET("/stats", adminHandler.GetStats)
			adminRoutes.GET("/reports", adminHandler.GetReport)
			adminRoutes.GET("/activities", adminHandler.GetActivities)
			adminRoutes.DELETE("/activities", adminHandler.ClearActivities)
			adminRoutes.GET("/settings", adminHandler.GetSettings)
			adminRoutes.PUT("/settings", adminHandler.UpdateSettings)
			adminRoutes.POST("/repair", adminHandler.RepairConsistency)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
