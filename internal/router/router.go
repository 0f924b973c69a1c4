package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"rostering_backend/internal/config"
	"rostering_backend/internal/events"
	"rostering_backend/internal/handlers"
	"rostering_backend/internal/middleware"
	"rostering_backend/internal/models"
	"rostering_backend/internal/repositories"
	"rostering_backend/internal/services"
	"rostering_backend/pkg/utils"
)

// Deps are the long-lived resources the routes are built from.
// Redis may be nil, which disables login rate limiting.
type Deps struct {
	DB        *sql.DB
	Tokens    *utils.TokenManager
	Redis     *redis.Client
	Publisher events.Publisher
	Config    *config.Config
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Deps) {
	db := deps.DB
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	// Initialize Repositories
	userRepo := repositories.NewUserRepository()
	rosterRepo := repositories.NewRosterRepository()
	shiftRepo := repositories.NewShiftRepository()
	attendanceRepo := repositories.NewAttendanceRepository()
	reportRepo := repositories.NewReportRepository()

	// Initialize Services
	authService := services.NewAuthService(userRepo, db, deps.Tokens, deps.Config.Auth.BcryptCost)
	staffService := services.NewStaffService(userRepo, db, deps.Config.Auth.BcryptCost)
	rosterService := services.NewRosterService(rosterRepo, shiftRepo, userRepo, db, publisher)
	attendanceService := services.NewAttendanceService(attendanceRepo, shiftRepo, userRepo, db, publisher)
	reportService := services.NewReportService(rosterRepo, shiftRepo, attendanceRepo, userRepo, reportRepo, db, publisher)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	staffHandler := handlers.NewStaffHandler(staffService)
	rosterHandler := handlers.NewRosterHandler(rosterService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	reportHandler := handlers.NewReportHandler(reportService)
	healthHandler := handlers.NewHealthHandler(db)

	apiV1 := engine.Group("/api/v1")
	apiV1.GET("/health", healthHandler.Health)
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler, middleware.RateLimit(deps.Config.Redis, deps.Redis))

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)

		admin := authenticated.Group("")
		admin.Use(middleware.RoleAuthMiddleware(string(models.RoleAdmin)))
		{
			SetupUserRoutes(admin, authHandler)
			SetupStaffRoutes(admin, staffHandler)
			SetupShiftRoutes(admin, rosterHandler)
			SetupRosterRoutes(admin, rosterHandler, reportHandler)
			SetupReportRoutes(admin, reportHandler)
		}

		staff := authenticated.Group("/me")
		staff.Use(middleware.RoleAuthMiddleware(string(models.RoleStaff)))
		SetupSelfServiceRoutes(staff, rosterHandler, attendanceHandler)
	}
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler, limiter gin.HandlerFunc) {
	group.POST("/login", limiter, authHandler.Login)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

func SetupUserRoutes(adminGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	adminGroup.POST("/users", authHandler.CreateUser)
}

// SetupStaffRoutes sets up the staff account routes.
func SetupStaffRoutes(adminGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	staffRoutes := adminGroup.Group("/staff")
	{
		staffRoutes.POST("", staffHandler.CreateStaff)
		staffRoutes.GET("", staffHandler.ListStaff)
		staffRoutes.GET("/:id", staffHandler.GetStaff)
		staffRoutes.PUT("/:id", staffHandler.UpdateStaff)
		staffRoutes.DELETE("/:id", staffHandler.DeleteStaff)
	}
}

// SetupShiftRoutes sets up the shift scheduling routes.
func SetupShiftRoutes(adminGroup *gin.RouterGroup, rosterHandler *handlers.RosterHandler) {
	shiftRoutes := adminGroup.Group("/shifts")
	{
		shiftRoutes.POST("", rosterHandler.ScheduleShift)
		shiftRoutes.POST("/week", rosterHandler.ScheduleWeek)
		shiftRoutes.GET("", rosterHandler.ListShifts)
		shiftRoutes.PATCH("/:id/assign", rosterHandler.AssignStaff)
		shiftRoutes.DELETE("/:id", rosterHandler.DeleteShift)
	}
}

func SetupRosterRoutes(adminGroup *gin.RouterGroup, rosterHandler *handlers.RosterHandler, reportHandler *handlers.ReportHandler) {
	rosterRoutes := adminGroup.Group("/rosters")
	{
		rosterRoutes.GET("", rosterHandler.ListRosters)
		rosterRoutes.GET("/current", rosterHandler.GetCurrentRoster)
		rosterRoutes.GET("/latest", rosterHandler.GetLatestRoster)
		rosterRoutes.GET("/week/:week_start", rosterHandler.GetRosterByWeek)
		rosterRoutes.GET("/:id", rosterHandler.GetRoster)
		rosterRoutes.POST("/:id/reports", reportHandler.GenerateReport)
		rosterRoutes.GET("/:id/reports", reportHandler.ListReports)
		rosterRoutes.GET("/:id/attendance.xlsx", reportHandler.ExportAttendance)
	}
}

func SetupReportRoutes(adminGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := adminGroup.Group("/reports")
	{
		reportRoutes.POST("/latest", reportHandler.GenerateLatestReport)
		reportRoutes.POST("/week/:week_start", reportHandler.GenerateReportForWeek)
		reportRoutes.GET("/:id", reportHandler.GetReport)
	}
}

// SetupSelfServiceRoutes are the routes staff use for their own shifts and attendance.
func SetupSelfServiceRoutes(staffGroup *gin.RouterGroup, rosterHandler *handlers.RosterHandler, attendanceHandler *handlers.AttendanceHandler) {
	staffGroup.GET("/shifts", rosterHandler.MyShifts)
	staffGroup.GET("/attendance", attendanceHandler.MyAttendance)
	staffGroup.POST("/attendance/time-in", attendanceHandler.TimeIn)
	staffGroup.POST("/attendance/time-out", attendanceHandler.TimeOut)
}
