package main

import (
	"os"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/starks-ai/motion_api/services"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	svcs := []context.Service{
		&services.GeminiService{},
		&services.SqliteService{},
	}

	if os.Getenv("RATE_LIMIT_BACKEND") == "redis" {
		svcs = append(svcs, &services.RedisService{})
	}

	svcs = append(svcs,
		&services.RateLimitService{},
		&services.WorkspaceService{},
		&services.ChatService{},
		&services.MotionService{},
		&services.SpeechService{},
		&services.MonitoringService{},

		&services.HttpService{},
	)

	ctx, err := context.NewCtx(svcs...)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
