package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"hrbot/internal/config"
	"hrbot/internal/database"
)

// admin 是一次性的运维工具：创建/晋升 OWNER，并可顺手签发第一枚邀请令牌。
func main() {
	var (
		ownerTgID  = flag.Int64("owner-tg-id", 0, "OWNER 的 Telegram 用户 ID（必填）")
		inviteRole = flag.String("invite-role", "", "顺便签发一枚邀请令牌：OWNER 或 RECRUITER（可选）")
		dbHost     = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort     = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName     = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser     = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass     = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode    = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	if *ownerTgID == 0 {
		log.Fatal("missing required flag: --owner-tg-id")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var owner database.Employer
	switch err := db.Where("tg_user_id = ?", *ownerTgID).First(&owner).Error; {
	case err == nil:
		owner.Role = database.RoleOwner
		owner.IsActive = true
		if err := db.Save(&owner).Error; err != nil {
			log.Fatalf("promote owner: %v", err)
		}
		fmt.Printf("employer %d promoted to OWNER\n", *ownerTgID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		owner = database.Employer{
			TgUserID: *ownerTgID,
			Role:     database.RoleOwner,
			IsActive: true,
		}
		if err := db.Create(&owner).Error; err != nil {
			log.Fatalf("create owner: %v", err)
		}
		fmt.Printf("owner employer %d created\n", *ownerTgID)
	default:
		log.Fatalf("query employer: %v", err)
	}

	if strings.TrimSpace(*inviteRole) != "" {
		role, err := database.ParseEmployerRole(*inviteRole)
		if err != nil {
			log.Fatalf("parse invite role: %v", err)
		}
		token := newToken(24)
		invite := database.EmployerInvite{Token: token, Role: role, IsUsed: false}
		if err := db.Create(&invite).Error; err != nil {
			log.Fatalf("create invite: %v", err)
		}
		fmt.Printf("invite token (%s): %s\n", role, token)
	}
}

func loadDatabaseConfig(host string, port int, name, user, password, sslMode string) (config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		Host:     fallback(host, os.Getenv("DATABASE_HOST"), "localhost"),
		Name:     fallback(name, os.Getenv("POSTGRES_DB"), "hrbot"),
		User:     fallback(user, os.Getenv("POSTGRES_USER"), "hrbot"),
		Password: fallback(password, os.Getenv("POSTGRES_PASSWORD"), ""),
		SSLMode:  fallback(sslMode, os.Getenv("DATABASE_SSLMODE"), "disable"),
	}

	cfg.Port = port
	if cfg.Port == 0 {
		if raw := os.Getenv("DATABASE_PORT"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			cfg.Port = parsed
		} else {
			cfg.Port = 5432
		}
	}

	if cfg.Password == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (flag --db-password or POSTGRES_PASSWORD)")
	}
	return cfg, nil
}

func fallback(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func newToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
