package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"hrbot/internal/api"
	"hrbot/internal/config"
	"hrbot/internal/database"
	"hrbot/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	log.Printf("api bootstrapped with db host=%s port=%d db=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Printf("database migrated")

	if err := seedInitialData(db, cfg.Seed); err != nil {
		log.Fatalf("seed initial data: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	address := fmt.Sprintf(":%d", cfg.API.Port)
	log.Printf("api listening on %s", address)

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, db, asynqClient, redisClient, storageClient, cfg)

	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}

// seedInitialData 保证 OWNER（可选）与默认岗位存在，重复启动是幂等的。
func seedInitialData(db *gorm.DB, seed config.SeedConfig) error {
	if seed.OwnerTgID != 0 {
		var owner database.Employer
		switch err := db.Where("tg_user_id = ?", seed.OwnerTgID).First(&owner).Error; {
		case err == nil:
			owner.Role = database.RoleOwner
			owner.IsActive = true
			if err := db.Save(&owner).Error; err != nil {
				return fmt.Errorf("promote owner: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			owner = database.Employer{
				TgUserID: seed.OwnerTgID,
				Role:     database.RoleOwner,
				IsActive: true,
			}
			if err := db.Create(&owner).Error; err != nil {
				return fmt.Errorf("create owner: %w", err)
			}
			log.Printf("seeded owner employer tg_user_id=%d", seed.OwnerTgID)
		default:
			return fmt.Errorf("query owner: %w", err)
		}
	}

	var vacancy database.Vacancy
	switch err := db.Where("title = ?", database.DefaultVacancyTitle).First(&vacancy).Error; {
	case err == nil:
		// default vacancy already present
	case errors.Is(err, gorm.ErrRecordNotFound):
		vacancy = database.Vacancy{
			Title:       database.DefaultVacancyTitle,
			Description: "Default application",
			IsActive:    true,
		}
		if err := db.Create(&vacancy).Error; err != nil {
			return fmt.Errorf("create default vacancy: %w", err)
		}
		log.Printf("seeded default vacancy")
	default:
		return fmt.Errorf("query default vacancy: %w", err)
	}

	return nil
}
