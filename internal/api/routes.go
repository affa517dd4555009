package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"hrbot/internal/api/middleware"
	"hrbot/internal/config"
	"hrbot/internal/storage"
)

// RegisterRoutes 注册 API 路由。
// 三个面：候选人面（initData 验签）、HR 管理面（验签 + 员工闸门）、内部面（共享密钥）。
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
	storageClient *storage.Client,
	cfg *config.Config,
) {
	applicationHandler := NewApplicationHandler(
		db,
		asynqClient,
		storageClient,
		redisClient,
		cfg.Upload.ClamdAddr,
		cfg.Upload.MaxPhotoBytes,
		cfg.Upload.DailySubmit,
	)
	vacancyHandler := NewVacancyHandler(db)
	adminHandler := NewAdminHandler(db, asynqClient)
	employerHandler := NewEmployerHandler(db)
	inviteHandler := NewInviteHandler(db)

	webAppAuth := middleware.WebAppAuthMiddleware(cfg.Telegram.BotToken)
	employerGate := middleware.EmployerGateMiddleware(db)
	internalToken := middleware.InternalTokenMiddleware(cfg.Internal.Token)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/vacancies", vacancyHandler.ListVacancies)

		applications := apiGroup.Group("/applications")
		applications.Use(webAppAuth)
		{
			applications.POST("", applicationHandler.CreateApplication)
			applications.POST("/:id/photo", applicationHandler.UploadPhoto)
		}

		admin := apiGroup.Group("/admin")
		admin.Use(webAppAuth, employerGate)
		{
			admin.GET("/applications", adminHandler.ListApplications)
			admin.GET("/applications/:id", adminHandler.GetApplication)
			admin.PATCH("/applications/:id/status", adminHandler.UpdateStatus)
		}

		internal := apiGroup.Group("/internal")
		internal.Use(internalToken)
		{
			internal.GET("/admin/applications", adminHandler.ListApplications)
			internal.GET("/admin/applications/:id", adminHandler.GetApplication)
			internal.PATCH("/admin/applications/:id/status", adminHandler.UpdateStatus)

			internal.GET("/employers/by-tg/:tg_user_id", employerHandler.GetByTg)

			internal.POST("/invites/create", inviteHandler.CreateInvite)
			internal.POST("/invites/join", inviteHandler.JoinInvite)
		}
	}
}
