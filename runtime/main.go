package main

import (
	"os"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lac-hong-legacy/lms_api/services"
)

// @title LMS API
// @version 1.0
// @description Course catalog, progress tracking, tests, attempts and rewards.
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file found, using system environment variables")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	ctx, err := context.NewCtx(
		services.NewDatabaseService(),
		&services.RedisService{},
		&services.MonitoringService{},
		&services.LockService{},

		&services.JWTService{},
		&services.AuditService{},
		&services.AuthService{},
		&services.UserService{},

		&services.CatalogService{},
		&services.AssignmentService{},
		&services.TestService{},
		&services.ProgressService{},
		&services.AttemptService{},
		&services.RewardService{},
		&services.RateLimitService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	if err := ctx.Run(); err != nil {
		log.Fatal().Err(err).Msg("Service stopped")
	}
}
