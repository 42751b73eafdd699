package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Cokefish9527/clipper/queue"
	"github.com/Cokefish9527/clipper/utils"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	Runner      JobRunner
	Store       queue.JobStore
	Pool        PoolStatser
	DownloadDir string
	BaseURL     string
	Swagger     bool
}

// NewRouter 注册所有路由
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	clips := NewClipController(cfg.Runner, cfg.DownloadDir, cfg.BaseURL)
	router.GET("/", clips.Root)
	router.POST("/process", clips.Process)

	// 片段和源视频通过 /downloads 直接访问
	router.Static("/downloads", cfg.DownloadDir)

	if cfg.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	monitor := NewMonitorAPI(cfg.Store, cfg.Pool, cfg.DownloadDir)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/monitor/stats", monitor.GetSystemStats)
		v1.GET("/jobs", monitor.ListJobs)
		v1.GET("/jobs/:id", monitor.GetJob)
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		utils.Debug("HTTP请求", map[string]string{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   fmt.Sprintf("%d", c.Writer.Status()),
			"clientIP": c.ClientIP(),
			"latency":  time.Since(start).String(),
		})
	}
}
