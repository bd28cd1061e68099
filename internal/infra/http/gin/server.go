package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"amoita/internal/infra/config"
	"amoita/internal/infra/obs"
)

type CalendarHTTP interface {
	SyncCalendar(c *gin.Context)
	Events(c *gin.Context)
	Conflicts(c *gin.Context)
	UpdateAvailability(c *gin.Context)
	StartRealTimeSync(c *gin.Context)
	StopRealTimeSync(c *gin.Context)
	Metrics(c *gin.Context)
}

type MessagingHTTP interface {
	ListTemplates(c *gin.Context)
	GetTemplate(c *gin.Context)
	CreateTemplate(c *gin.Context)
	UpdateTemplate(c *gin.Context)
	DeleteTemplate(c *gin.Context)
	ListRules(c *gin.Context)
	CreateRule(c *gin.Context)
	UpdateRule(c *gin.Context)
	ListMessages(c *gin.Context)
	GetMessage(c *gin.Context)
	SendManual(c *gin.Context)
	CancelMessage(c *gin.Context)
	ProcessEvent(c *gin.Context)
}

type PropertyHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Sync(c *gin.Context)
	SyncAll(c *gin.Context)
	ConnectChannel(c *gin.Context)
	DisconnectChannel(c *gin.Context)
}

type StatusHTTP interface {
	Status(c *gin.Context)
	AuditLog(c *gin.Context)
}

type Handlers struct {
	Calendar  CalendarHTTP
	Messaging MessagingHTTP
	Property  PropertyHTTP
	Status    StatusHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Status != nil {
		api.GET("/status", h.Status.Status)
		api.GET("/audit", h.Status.AuditLog)
	}
	if h.Property != nil {
		api.GET("/properties", h.Property.List)
		api.GET("/properties/:id", h.Property.Get)
		api.POST("/properties/:id/sync", h.Property.Sync)
		api.POST("/properties/sync", h.Property.SyncAll)
		api.POST("/properties/:id/channels", h.Property.ConnectChannel)
		api.DELETE("/properties/:id/channels/:channelId", h.Property.DisconnectChannel)
	}
	if h.Calendar != nil {
		calGroup := api.Group("/properties/:id/calendar")
		calGroup.POST("/sync", h.Calendar.SyncCalendar)
		calGroup.GET("/events", h.Calendar.Events)
		calGroup.GET("/conflicts", h.Calendar.Conflicts)
		calGroup.GET("/metrics", h.Calendar.Metrics)
		calGroup.POST("/realtime", h.Calendar.StartRealTimeSync)
		calGroup.DELETE("/realtime", h.Calendar.StopRealTimeSync)
		api.PUT("/properties/:id/availability", h.Calendar.UpdateAvailability)
	}
	if h.Messaging != nil {
		api.GET("/templates", h.Messaging.ListTemplates)
		api.POST("/templates", h.Messaging.CreateTemplate)
		api.GET("/templates/:id", h.Messaging.GetTemplate)
		api.PUT("/templates/:id", h.Messaging.UpdateTemplate)
		api.DELETE("/templates/:id", h.Messaging.DeleteTemplate)

		api.GET("/rules", h.Messaging.ListRules)
		api.POST("/rules", h.Messaging.CreateRule)
		api.PUT("/rules/:id", h.Messaging.UpdateRule)

		api.GET("/messages", h.Messaging.ListMessages)
		api.GET("/messages/:id", h.Messaging.GetMessage)
		api.POST("/messages/send", h.Messaging.SendManual)
		api.POST("/messages/:id/cancel", h.Messaging.CancelMessage)

		api.POST("/events/reservation", h.Messaging.ProcessEvent)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
