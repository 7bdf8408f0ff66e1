package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/opentype"
)

var (
	logger      *logrus.Logger
	cfg         Config
	gridDir     string
	captionFont *opentype.Font
	asynqClient *asynq.Client
	jobs        *jobStore
)

func init() {
	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func ensureDirectories() {
	if err := os.MkdirAll(gridDir, os.ModePerm); err != nil {
		logger.Fatalf("Error creating directory %s: %v", gridDir, err)
	}
}

func main() {
	cfg = loadConfig()

	gridDir = cfg.Cache.Dir
	if gridDir == "" {
		ex, err := os.Executable()
		if err != nil {
			logger.Fatalf("Error getting executable path: %v", err)
		}
		gridDir = filepath.Join(filepath.Dir(ex), "cache", "grids")
	}
	logger.Infof("Grid cache directory: %s", gridDir)
	ensureDirectories()

	var err error
	captionFont, err = resolveFont(cfg.Grid.FontPath)
	if err != nil {
		logger.Fatalf("Error resolving caption font: %v", err)
	}

	if cfg.Redis.Addr != "" {
		jobs = newJobStore(cfg)
		asynqClient = asynq.NewClient(redisOpt(cfg))
		defer asynqClient.Close()
		go func() {
			if err := runWorker(cfg); err != nil {
				logger.Fatalf("Worker exited: %v", err)
			}
		}()
		logger.Infof("Async worker started | redis=%s | concurrency=%d", cfg.Redis.Addr, cfg.Worker.Concurrency)
	}

	logger.Infof("Photo grid service starting | target_size=%d | quality=%d | mode=%s",
		cfg.Grid.TargetSize, cfg.Grid.JPEGQuality, cfg.Grid.LayoutMode)

	gin.SetMode(gin.ReleaseMode)
	r := newRouter()

	if err := r.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.Fatal("Failed to start server: ", err)
	}
}

func newRouter() *gin.Engine {
	r := gin.Default()

	// Routes
	r.GET("/health", healthCheck)
	r.POST("/generate", generateSingle)
	r.POST("/generate/json", generateJSON)
	r.POST("/generate/batch", generateBatch)
	r.POST("/generate/async", enqueueGrid)
	r.GET("/jobs/:id", getJob)
	r.GET("/grids/:key", getGrid)

	return r
}
