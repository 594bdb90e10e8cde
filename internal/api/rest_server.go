// Package api - REST API движка миссий поверх gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/alarm-missions/internal/alarm"
	"github.com/annel0/alarm-missions/internal/api/replay"
	"github.com/annel0/alarm-missions/internal/game"
	"github.com/annel0/alarm-missions/internal/importer"
	"github.com/annel0/alarm-missions/internal/logging"
	"github.com/annel0/alarm-missions/internal/middleware"
	"github.com/annel0/alarm-missions/internal/mission"
	"github.com/annel0/alarm-missions/internal/preset"
	"github.com/annel0/alarm-missions/internal/session"
	"github.com/annel0/alarm-missions/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Version - версия API в /health и /api/stats
const Version = "v1.0.0"

// RestServer - HTTP-сервер движка миссий
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server

	sessions *session.Manager
	importer *importer.Service
	presets  *preset.Store
	journal  *replay.Journal
	webhooks *OutboundWebhookManager
	metrics  *ServerMetrics
	logger   *logging.Logger
}

// Config - зависимости и параметры сервера
type Config struct {
	Port     int
	Sessions *session.Manager
	Importer *importer.Service
	Presets  *preset.Store
	Journal  *replay.Journal         // может быть nil
	Webhooks *OutboundWebhookManager // может быть nil
	Registry *prometheus.Registry    // nil => глобальный регистр
	Service  string                  // имя сервиса для otelgin
}

// GenericResponse - общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создаёт сервер и настраивает маршруты
func NewRestServer(cfg Config) *RestServer {
	if cfg.Port == 0 {
		cfg.Port = 8088
	}
	if cfg.Service == "" {
		cfg.Service = "alarm-missions"
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Service))
	router.Use(middleware.NewRequestLogger().Handler())

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if cfg.Registry != nil {
		registerer, gatherer = cfg.Registry, cfg.Registry
	}
	router.Use(middleware.NewPrometheusMiddleware("missions", registerer).Handler())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	rs := &RestServer{
		router:   router,
		sessions: cfg.Sessions,
		importer: cfg.Importer,
		presets:  cfg.Presets,
		journal:  cfg.Journal,
		webhooks: cfg.Webhooks,
		metrics:  NewServerMetrics(),
		logger:   logging.GetAPILogger(),
	}
	rs.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	rs.setupRoutes()
	return rs
}

func (rs *RestServer) setupRoutes() {
	rs.router.Use(corsMiddleware())
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	api.GET("/stats", rs.handleStats)

	presets := api.Group("/presets")
	{
		presets.GET("", rs.handleListPresets)
		presets.GET("/:name", rs.handleGetPreset)
		presets.POST("/parse", rs.handleParsePreset)
	}

	imports := api.Group("/imports")
	{
		imports.GET("", rs.handleListImports)
		imports.GET("/availability", rs.handleAvailability)
		imports.POST("/code", rs.handleImportCode)
		imports.POST("/text", rs.handleImportText)
		imports.DELETE("/:name", rs.handleDeleteImport)
	}

	api.GET("/mission-types", rs.handleMissionTypes)
	api.POST("/missions", rs.handleCreateMission)
	api.GET("/missions", rs.handleListMissions)
	missions := api.Group("/missions/:id")
	missions.Use(rs.sessionMiddleware())
	{
		missions.GET("", rs.handleGetMission)
		missions.DELETE("", rs.handleDeleteMission)
		missions.POST("/interact", rs.handleInteract)
		missions.POST("/retry", rs.handleRetry)
		missions.POST("/finish", rs.handleFinish)
		missions.POST("/shake", rs.handleShake)
		missions.POST("/sensor-error", rs.handleSensorError)
		missions.POST("/scan", rs.handleScan)
		missions.POST("/scan/confirm", rs.handleConfirmMismatch)
		missions.POST("/scan/dismiss", rs.handleDismissMismatch)
		missions.POST("/blocks", rs.handlePlaceBlock)
		missions.DELETE("/blocks", rs.handleRemoveBlock)
		missions.POST("/select", rs.handleSelectItem)
		missions.POST("/photo", rs.handleSubmitPhoto)
	}

	api.POST("/alarms", rs.handleRingAlarm)
	alarms := api.Group("/alarms/:id")
	alarms.Use(alarmIDMiddleware())
	{
		alarms.GET("", rs.handleGetAlarm)
		alarms.DELETE("", rs.handleDeleteAlarm)
		alarms.POST("/start", rs.handleStartAlarm)
		alarms.POST("/next", rs.handleAdvanceAlarm)
		alarms.POST("/back", rs.handleBackAlarm)
	}

	if rs.journal != nil {
		api.GET("/events", rs.handleEvents)
		api.GET("/events/stats", rs.handleEventStats)
	}
	if rs.webhooks != nil {
		hooks := api.Group("/webhooks")
		hooks.GET("", rs.handleListWebhooks)
		hooks.POST("", rs.handleCreateWebhook)
		hooks.GET("/:id", rs.handleGetWebhook)
		hooks.DELETE("/:id", rs.handleDeleteWebhook)
	}
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler { return rs.router }

// Start слушает порт до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.httpServer.Addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop плавно останавливает сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	rs.logger.Info("🛑 Остановка REST API")
	return rs.httpServer.Shutdown(ctx)
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": Version,
		"time":    time.Now().Unix(),
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	stats := map[string]interface{}{
		"version":  Version,
		"server":   rs.metrics.Snapshot(),
		"sessions": rs.sessions.Count(),
		"presets":  rs.presets.Len(),
	}
	if worlds, err := rs.importer.List(c.Request.Context()); err == nil {
		stats["imported"] = len(worlds)
	}
	if rs.journal != nil {
		stats["events"] = rs.journal.Stats()
	}
	ok(c, http.StatusOK, "Статистика получена", stats)
}

func ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, GenericResponse{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, GenericResponse{Success: false, Message: message})
}

// failErr отвечает кодом по ошибке домена. Для ошибок импорта в
// сообщение идёт текст для пользователя.
func failErr(c *gin.Context, err error) {
	status := statusFor(err)
	msg := importer.Message(err)
	if msg == "" {
		msg = err.Error()
	}
	if status >= 500 {
		logging.GetAPILogger().Error("❌ %s %s: %v trace=%s", c.Request.Method, c.FullPath(), err, middleware.TraceID(c))
	}
	fail(c, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrAlarmNotFound),
		errors.Is(err, preset.ErrPresetNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, importer.ErrNotImported),
		errors.Is(err, importer.ErrCodeNotFound),
		errors.Is(err, ErrWebhookNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrWrongMissionType),
		errors.Is(err, mission.ErrUnknownType),
		errors.Is(err, importer.ErrInvalidCode),
		errors.Is(err, importer.ErrEmptyWorld):
		return http.StatusBadRequest
	case errors.Is(err, importer.ErrAlreadyImported),
		errors.Is(err, mission.ErrNotRetryable),
		errors.Is(err, mission.ErrNotExpired),
		errors.Is(err, mission.ErrRunnerNotStarted),
		errors.Is(err, mission.ErrManualFinishUnavailable),
		errors.Is(err, mission.ErrNoPendingMismatch),
		errors.Is(err, session.ErrMissionNotCompleted),
		errors.Is(err, alarm.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, mission.ErrRunnerStopped),
		errors.Is(err, game.ErrClosed):
		return http.StatusGone
	case errors.Is(err, importer.ErrServer):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
