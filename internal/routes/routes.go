package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/config"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/domain/work"
	"github.com/BruksfildServices01/jobsite-manager/internal/handlers"
	infraRepo "github.com/BruksfildServices01/jobsite-manager/internal/infra/repository"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/mailer"
	"github.com/BruksfildServices01/jobsite-manager/internal/middleware"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/ratelimit"
	"github.com/BruksfildServices01/jobsite-manager/internal/storage"
	ucJob "github.com/BruksfildServices01/jobsite-manager/internal/usecase/job"
	"github.com/BruksfildServices01/jobsite-manager/internal/usecase/notify"
	ucUser "github.com/BruksfildServices01/jobsite-manager/internal/usecase/user"
	ucWork "github.com/BruksfildServices01/jobsite-manager/internal/usecase/work"
)

// Deps are the long-lived collaborators built in main.
type Deps struct {
	Config   *config.Config
	Pool     db.Provider
	Sessions *auth.Sessions
	Tokens   *auth.Tokens
	Limiter  ratelimit.Limiter
	Mailer   mailer.Mailer
	Store    storage.ObjectStore
	Audit    *audit.Dispatcher
	Log      logger.Logger
}

var (
	staffRoles = []models.UserType{models.UserTypeOwner, models.UserTypeAdmin, models.UserTypeStaff}
	managers   = []models.UserType{models.UserTypeOwner, models.UserTypeAdmin}
)

func RegisterRoutes(r *gin.Engine, deps Deps) {
	cfg := deps.Config

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	workRepo := infraRepo.NewWorkGormRepository()
	jobRepo := infraRepo.NewJobGormRepository(workRepo)
	cleanupRepo := infraRepo.NewCleanupGormRepository()

	notifier := notify.NewAssignmentNotifier(deps.Mailer, deps.Tokens, cfg.AppURL, deps.Log)
	guard := middleware.NewGuard(deps.Pool, deps.Sessions, deps.Log)

	// ======================================================
	// USE CASES
	// ======================================================
	deleteUserUC := ucUser.NewDeleteUser(cleanupRepo, deps.Store, deps.Audit, deps.Log)

	createJobUC := ucJob.NewCreateJob(deps.Audit)
	jobDetailUC := ucJob.NewGetJobDetail(jobRepo)
	deleteJobUC := ucJob.NewDeleteJob(cleanupRepo, deps.Store, deps.Audit, deps.Log)
	deletePhaseUC := ucJob.NewDeletePhase(cleanupRepo, deps.Audit)
	calendarUC := ucJob.NewListCalendar(jobRepo)

	createItemUC := ucWork.NewCreateItem(workRepo, jobRepo, notifier, deps.Audit)
	updateItemUC := ucWork.NewUpdateItem(workRepo, jobRepo, notifier)
	itemStatusUC := ucWork.NewSetStatus(workRepo)
	deleteItemUC := ucWork.NewDeleteItem(cleanupRepo, deps.Audit)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(handlers.AuthHandlerConfig{
		Sessions:     deps.Sessions,
		Tokens:       deps.Tokens,
		Limiter:      deps.Limiter,
		Mailer:       deps.Mailer,
		AppURL:       cfg.AppURL,
		CheckDomains: cfg.CheckEmailDomains,
		SecureCookie: !cfg.IsDevelopment(),
		Log:          deps.Log,
	})
	userHandler := handlers.NewUserHandler(deleteUserUC, deps.Audit, cfg.CheckEmailDomains)
	clientHandler := handlers.NewClientHandler(deps.Mailer, deps.Tokens, cfg.AppURL, deps.Audit, cfg.CheckEmailDomains, deps.Log)
	settingsHandler := handlers.NewSettingsHandler(cfg.CheckEmailDomains)
	inviteHandler := handlers.NewInviteHandler(deps.Mailer, cfg.AppURL, deps.Audit)

	jobHandler := handlers.NewJobHandler(jobRepo, createJobUC, jobDetailUC, deleteJobUC, deletePhaseUC, deps.Audit)
	taskHandler := handlers.NewWorkHandler(work.KindTask, createItemUC, updateItemUC, itemStatusUC, deleteItemUC)
	materialHandler := handlers.NewWorkHandler(work.KindMaterial, createItemUC, updateItemUC, itemStatusUC, deleteItemUC)
	noteHandler := handlers.NewNoteHandler(jobRepo)
	floorplanHandler := handlers.NewFloorplanHandler(jobRepo, deps.Store, deps.Log)
	calendarHandler := handlers.NewCalendarHandler(calendarUC, cfg.Timezone)
	auditLogsHandler := handlers.NewAuditLogsHandler()

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	// preflight requests match no route, so CORS sits on the engine
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	api.Use(middleware.RequestLogger(deps.Log), middleware.NoStore())
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.POST("/auth/login", guard.WithDB("Failed to login", authHandler.Login))
		api.POST("/auth/logout", authHandler.Logout)
		api.POST("/register", guard.WithDB("Failed to register", authHandler.Register))
		api.POST("/auth/forgot-password", guard.WithDB("Failed to send reset email", authHandler.ForgotPassword))
		api.POST("/auth/reset-password", guard.WithDB("Failed to reset password", authHandler.ResetPassword))
		api.GET("/unsubscribe", guard.WithDB("Failed to unsubscribe", authHandler.Unsubscribe))

		// ------------------------------
		// USERS / CLIENTS / SETTINGS
		// ------------------------------
		api.GET("/users", guard.WithRole(staffRoles, "Failed to fetch users", userHandler.List))
		api.GET("/users/:id", guard.WithAuth("Failed to fetch user", userHandler.Get))
		api.PATCH("/users/:id", guard.WithRole(managers, "Failed to update user", userHandler.Update))
		api.DELETE("/users/:id", guard.WithRole(managers, "Failed to delete user", userHandler.Delete))

		api.GET("/clients", guard.WithRole(staffRoles, "Failed to fetch clients", clientHandler.List))
		api.POST("/clients", guard.WithRole(managers, "Failed to create client", clientHandler.Create))

		api.GET("/settings", guard.WithAuth("Failed to fetch settings", settingsHandler.Get))
		api.PUT("/settings", guard.WithAuth("Failed to update settings", settingsHandler.Update))
		api.PUT("/settings/password", guard.WithAuth("Failed to update password", settingsHandler.UpdatePassword))

		// ------------------------------
		// INVITE CODE
		// ------------------------------
		api.GET("/invite", guard.WithRole(managers, "Failed to fetch invite code", inviteHandler.Get))
		api.POST("/invite", guard.WithRole(managers, "Failed to update invite code", inviteHandler.Regenerate))
		api.POST("/invite/send", guard.WithRole(managers, "Failed to send invite", inviteHandler.Send))

		// ------------------------------
		// JOBS / PHASES
		// ------------------------------
		api.GET("/jobs", guard.WithAuth("Failed to fetch jobs", jobHandler.List))
		api.POST("/jobs", guard.WithRole(staffRoles, "Failed to create job", jobHandler.Create))
		api.GET("/jobs/:id", guard.WithAuth("Failed to fetch job", jobHandler.Get))
		api.PUT("/jobs/:id", guard.WithRole(staffRoles, "Failed to update job", jobHandler.Update))
		api.DELETE("/jobs/:id", guard.WithRole(managers, "Failed to delete job", jobHandler.Delete))

		api.POST("/jobs/:id/phases", guard.WithRole(staffRoles, "Failed to create phase", jobHandler.CreatePhase))
		api.PUT("/phases/:id", guard.WithRole(staffRoles, "Failed to update phase", jobHandler.UpdatePhase))
		api.DELETE("/phases/:id", guard.WithRole(staffRoles, "Failed to delete phase", jobHandler.DeletePhase))

		// ------------------------------
		// TASKS / MATERIALS
		// ------------------------------
		api.POST("/phases/:id/tasks", guard.WithRole(staffRoles, "Failed to create task", taskHandler.Create))
		api.PUT("/tasks/:id", guard.WithRole(staffRoles, "Failed to update task", taskHandler.Update))
		api.PATCH("/tasks/:id/status", guard.WithAuth("Failed to update task status", taskHandler.SetStatus))
		api.DELETE("/tasks/:id", guard.WithRole(staffRoles, "Failed to delete task", taskHandler.Delete))

		api.POST("/phases/:id/materials", guard.WithRole(staffRoles, "Failed to create material", materialHandler.Create))
		api.PUT("/materials/:id", guard.WithRole(staffRoles, "Failed to update material", materialHandler.Update))
		api.PATCH("/materials/:id/status", guard.WithAuth("Failed to update material status", materialHandler.SetStatus))
		api.DELETE("/materials/:id", guard.WithRole(staffRoles, "Failed to delete material", materialHandler.Delete))

		// ------------------------------
		// NOTES
		// ------------------------------
		api.POST("/phases/:id/notes", guard.WithAuth("Failed to create note", noteHandler.Create))
		api.PUT("/notes", guard.WithAuth("Failed to update note", noteHandler.Update))
		api.DELETE("/notes", guard.WithAuth("Failed to delete note", noteHandler.Delete))

		// ------------------------------
		// FLOORPLANS
		// ------------------------------
		api.GET("/jobs/:id/floorplans", guard.WithAuth("Failed to fetch floorplans", floorplanHandler.List))
		api.POST("/jobs/:id/floorplans", guard.WithRole(staffRoles, "Failed to upload floorplan", floorplanHandler.Upload))
		api.POST("/jobs/:id/floorplans/copy", guard.WithRole(staffRoles, "Failed to copy floorplans", floorplanHandler.Copy))
		api.DELETE("/floorplans/:id", guard.WithRole(staffRoles, "Failed to delete floorplan", floorplanHandler.Delete))

		// ------------------------------
		// CALENDAR / AUDIT
		// ------------------------------
		api.GET("/calendar", guard.WithAuth("Failed to fetch calendar", calendarHandler.Month))
		api.GET("/audit-logs", guard.WithRole(managers, "Failed to fetch audit logs", auditLogsHandler.List))
	}
}
