package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"

	appContext "github.com/alphabatem/common/context"

	docs "github.com/starks-ai/motion_api/docs"
	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/services/handlers"
	"github.com/starks-ai/motion_api/shared"
)

type HttpService struct {
	appContext.DefaultService

	geminiSvc    *GeminiService
	rateLimitSvc *RateLimitService
	workspaceSvc *WorkspaceService
	chatSvc      *ChatService
	motionSvc    *MotionService
	speechSvc    *SpeechService
	monitorSvc   *MonitoringService

	port int
	app  *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *appContext.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.geminiSvc = svc.Service(GEMINI_SVC).(*GeminiService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.workspaceSvc = svc.Service(WORKSPACE_SVC).(*WorkspaceService)
	svc.chatSvc = svc.Service(CHAT_SVC).(*ChatService)
	svc.motionSvc = svc.Service(MOTION_SVC).(*MotionService)
	svc.speechSvc = svc.Service(SPEECH_SVC).(*SpeechService)
	if monitorSvc, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		svc.monitorSvc = monitorSvc
	}

	docs.SwaggerInfo.BasePath = ""
	svc.app = svc.buildApp()

	logrus.Infof("http service listening on :%d", svc.port)
	return svc.app.Listen(fmt.Sprintf(":%d", svc.port))
}

// buildApp assembles the router without binding a port, so tests can drive
// it through app.Test.
func (svc *HttpService) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:  shared.JSONAPI.Marshal,
		JSONDecoder:  shared.JSONAPI.Unmarshal,
		ErrorHandler: svc.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if svc.monitorSvc != nil {
		app.Use(MonitoringMiddleware(svc.monitorSvc))
	}

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	chatHandler := handlers.NewChatHandler(svc.chatSvc, svc.geminiSvc)
	motionHandler := handlers.NewMotionHandler(svc.motionSvc, svc.geminiSvc)
	speechHandler := handlers.NewSpeechHandler(svc.speechSvc, svc.geminiSvc)
	workspaceHandler := handlers.NewWorkspaceHandler(svc.workspaceSvc)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	// Generation endpoints. Body validation runs before rate limiting so a
	// malformed request never consumes quota.
	v1.Post("/chat", chatHandler.ValidateBody, svc.rateLimitSvc.Limit(shared.EndpointChat), chatHandler.Chat)
	v1.Post("/motion-spec", motionHandler.ValidateBody, svc.rateLimitSvc.Limit(shared.EndpointMotionSpec), motionHandler.Generate)
	v1.Post("/speech", speechHandler.ValidateBody, svc.rateLimitSvc.Limit(shared.EndpointSpeech), speechHandler.Synthesize)

	ws := v1.Group("/workspace")
	ws.Get("/projects", workspaceHandler.ListProjects)
	ws.Post("/projects", workspaceHandler.CreateProject)
	ws.Put("/projects/:projectId", workspaceHandler.RenameProject)
	ws.Delete("/projects/:projectId", workspaceHandler.DeleteProject)
	ws.Get("/projects/:projectId/outputs", workspaceHandler.ProjectOutputs)
	ws.Get("/active-project", workspaceHandler.GetActiveProject)
	ws.Put("/active-project", workspaceHandler.SetActiveProject)
	ws.Get("/outputs", workspaceHandler.ListOutputs)
	ws.Post("/outputs", workspaceHandler.SaveOutput)
	ws.Get("/outputs/:outputId", workspaceHandler.GetOutput)
	ws.Post("/shares", workspaceHandler.CreateShare)
	ws.Get("/recent-generations", workspaceHandler.RecentGenerations)
	ws.Post("/recent-generations", workspaceHandler.PushRecentGeneration)
	ws.Post("/analytics/events", workspaceHandler.RecordAnalytics)
	ws.Get("/analytics/summary", workspaceHandler.AnalyticsSummary)
	ws.Get("/tour", workspaceHandler.GetTour)
	ws.Put("/tour", workspaceHandler.CompleteTour)
	ws.Get("/sound", workspaceHandler.GetSound)
	ws.Put("/sound", workspaceHandler.SetSound)
	ws.Get("/chat-history", workspaceHandler.GetChatHistory)
	ws.Put("/chat-history", workspaceHandler.SaveChatHistory)
	ws.Delete("/chat-history", workspaceHandler.ClearChatHistory)

	v1.Get("/shares/:shareId", workspaceHandler.GetShare)

	return app
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.RetryAfterSeconds > 0 {
			c.Set("Retry-After", strconv.Itoa(appErr.RetryAfterSeconds))
		}
		return c.Status(appErr.StatusCode).JSON(dto.ErrorResponse{
			Error:   appErr.Message,
			Details: appErr.Data,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(dto.ErrorResponse{Error: fiberErr.Message})
	}

	logrus.WithError(err).Error("unhandled request error")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Internal server error."})
}
