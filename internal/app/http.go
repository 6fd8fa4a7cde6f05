package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/taskmaster-app/taskmaster/internal/config"
	v1 "github.com/taskmaster-app/taskmaster/internal/delivery/http/v1"
	"github.com/taskmaster-app/taskmaster/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()
	jwtCfg := cfg.JWT

	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
		jwtCfg.RefreshTokenTTL,
	)
	sessionService := services.NewSessionService(globalLogger, globalPostgresPool)
	userService := services.NewUserService(globalLogger, globalPostgresPool)
	projectService := services.NewProjectService(globalLogger, globalPostgresPool)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool)
	dashboardService := services.NewDashboardService(globalLogger, globalPostgresPool)

	v1Handler := v1.New(
		globalLogger,
		cfg.SiteRootURL,
		authService,
		sessionService,
		userService,
		projectService,
		taskService,
		dashboardService,
	)

	authRouter := router.Group("/auth")
	authRouter.POST("/login", v1Handler.HandleLogin)
	authRouter.POST("/refresh", v1Handler.HandleRefresh)
	authRouter.POST("/register", v1Handler.HandleRegister)
	authRouter.POST("/forgot-password", v1Handler.HandleForgotPassword)
	authRouter.POST("/set-session", v1Handler.HandleSetSession)
	authRouter.POST("/logout", v1Handler.HandleAuthMiddleware, v1Handler.HandleLogout)

	// Every page route goes through the session gate.
	pages := router.Group("/", v1Handler.HandleSessionGate)
	pages.GET("/", v1Handler.HandleLanding)
	pages.GET("/dashboard", v1Handler.HandleDashboard)
	pages.GET("/project", v1Handler.HandleProjectList)
	pages.POST("/project", v1Handler.HandleCreateProject)
	pages.GET("/project/:projectID", v1Handler.HandleProjectDetail)
	pages.GET("/project/:projectID/task-tracker", v1Handler.HandleTaskBoard)
	pages.POST("/project/:projectID/task-tracker/tasks", v1Handler.HandleCreateTask)
	pages.POST("/project/:projectID/task-tracker/tasks/:taskID/advance", v1Handler.HandleAdvanceTask)
}
