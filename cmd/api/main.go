package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/school-admin/school-api/api/swagger"
	"github.com/school-admin/school-api/internal/handler"
	"github.com/school-admin/school-api/internal/middleware"
	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/repository"
	"github.com/school-admin/school-api/internal/service"
	"github.com/school-admin/school-api/pkg/cache"
	"github.com/school-admin/school-api/pkg/config"
	"github.com/school-admin/school-api/pkg/database"
	"github.com/school-admin/school-api/pkg/logger"
	corsmiddleware "github.com/school-admin/school-api/pkg/middleware/cors"
	reqidmiddleware "github.com/school-admin/school-api/pkg/middleware/requestid"
)

// @title School Administration API
// @version 1.0.0
// @description Multi-tenant REST API for school administration
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	parentRepo := repository.NewParentRepository(db)
	classRepo := repository.NewClassRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, schoolRepo, cfg.JWT, logr)
	userSvc := service.NewUserService(userRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, parentRepo, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, logr)
	parentSvc := service.NewParentService(parentRepo, logr)
	classSvc := service.NewClassService(classRepo, teacherRepo, logr)
	gradeSvc := service.NewGradeService(gradeRepo, logr)

	// The cached services treat a nil cache as disabled; they must receive a
	// true nil, not a typed-nil *repository.CacheRepository.
	var (
		attendanceSvc   *service.AttendanceService
		announcementSvc *service.AnnouncementService
	)
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient)
		attendanceSvc = service.NewAttendanceService(attendanceRepo, cacheRepo, cfg.Cache, logr)
		announcementSvc = service.NewAnnouncementService(announcementRepo, studentRepo, cacheRepo, cfg.Cache, logr)
	} else {
		attendanceSvc = service.NewAttendanceService(attendanceRepo, nil, cfg.Cache, logr)
		announcementSvc = service.NewAnnouncementService(announcementRepo, studentRepo, nil, cfg.Cache, logr)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	parentHandler := handler.NewParentHandler(parentSvc)
	classHandler := handler.NewClassHandler(classSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RBAC(models.RoleAdmin)
	staff := middleware.RBAC(models.RoleAdmin, models.RoleTeacher)
	anyRole := middleware.RBAC(models.RoleAdmin, models.RoleTeacher, models.RoleParent, models.RoleStudent)

	users := protected.Group("/users")
	{
		users.GET("", adminOnly, userHandler.List)
		users.POST("", adminOnly, userHandler.Create)
		users.GET("/:id", adminOnly, userHandler.Get)
		users.PATCH("/:id", adminOnly, userHandler.Update)
		users.DELETE("/:id", adminOnly, userHandler.Delete)
	}

	students := protected.Group("/students")
	{
		students.GET("", staff, studentHandler.List)
		students.POST("", adminOnly, studentHandler.Create)
		students.GET("/:id", staff, studentHandler.Get)
		students.PATCH("/:id", adminOnly, studentHandler.Update)
		students.DELETE("/:id", adminOnly, studentHandler.Delete)
		students.POST("/:id/classes/:classId", adminOnly, studentHandler.Enroll)
		students.DELETE("/:id/classes/:classId", adminOnly, studentHandler.Unenroll)
		students.GET("/:id/parents", staff, studentHandler.Parents)
		students.POST("/:id/parents/:parentId", adminOnly, studentHandler.LinkParent)
		students.DELETE("/:id/parents/:parentId", adminOnly, studentHandler.UnlinkParent)
	}

	teachers := protected.Group("/teachers")
	{
		teachers.GET("", staff, teacherHandler.List)
		teachers.POST("", adminOnly, teacherHandler.Create)
		teachers.GET("/:id", staff, teacherHandler.Get)
		teachers.PATCH("/:id", adminOnly, teacherHandler.Update)
		teachers.DELETE("/:id", adminOnly, teacherHandler.Delete)
	}

	parents := protected.Group("/parents")
	{
		parents.GET("", staff, parentHandler.List)
		parents.POST("", adminOnly, parentHandler.Create)
		parents.GET("/:id", staff, parentHandler.Get)
		parents.PATCH("/:id", adminOnly, parentHandler.Update)
		parents.DELETE("/:id", adminOnly, parentHandler.Delete)
		parents.GET("/:id/students", staff, parentHandler.Students)
	}

	classes := protected.Group("/classes")
	{
		classes.GET("", staff, classHandler.List)
		classes.POST("", adminOnly, classHandler.Create)
		classes.GET("/:id", staff, classHandler.Get)
		classes.PATCH("/:id", adminOnly, classHandler.Update)
		classes.DELETE("/:id", adminOnly, classHandler.Delete)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.GET("", staff, attendanceHandler.List)
		attendance.GET("/summary", staff, attendanceHandler.Summary)
		attendance.GET("/student/:studentId", staff, attendanceHandler.ListByStudent)
		attendance.GET("/class/:classId", staff, attendanceHandler.ListByClass)
		attendance.POST("", staff, attendanceHandler.Create)
		attendance.POST("/bulk", staff, attendanceHandler.CreateBulk)
		attendance.GET("/:id", staff, attendanceHandler.Get)
		attendance.PATCH("/:id", staff, attendanceHandler.Update)
		attendance.DELETE("/:id", adminOnly, attendanceHandler.Delete)
	}

	grades := protected.Group("/grades")
	{
		grades.GET("", staff, gradeHandler.List)
		grades.GET("/export", staff, gradeHandler.Export)
		grades.POST("", staff, gradeHandler.Create)
		grades.GET("/:id", staff, gradeHandler.Get)
		grades.PATCH("/:id", staff, gradeHandler.Update)
		grades.DELETE("/:id", adminOnly, gradeHandler.Delete)
	}

	announcements := protected.Group("/announcements")
	{
		announcements.GET("", staff, announcementHandler.List)
		announcements.GET("/feed", anyRole, announcementHandler.Feed)
		announcements.POST("", staff, announcementHandler.Create)
		announcements.GET("/:id", anyRole, announcementHandler.Get)
		announcements.PATCH("/:id", staff, announcementHandler.Update)
		announcements.DELETE("/:id", staff, announcementHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
