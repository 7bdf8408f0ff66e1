package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const serviceVersion = "1.0.0"

type GridRequest struct {
	Photos   []string `json:"photos" binding:"required,min=1"`
	ChatID   string   `json:"chatid" binding:"required"`
	ItemName string   `json:"item_name" binding:"required"`
}

type BatchRequest struct {
	Items []GridRequest `json:"items" binding:"required,min=1,max=50,dive"`
}

type gridResult struct {
	data []byte
	err  error
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": serviceVersion,
		"config": gin.H{
			"target_size":  cfg.Grid.TargetSize,
			"jpeg_quality": cfg.Grid.JPEGQuality,
			"max_photos":   cfg.Grid.MaxPhotos,
		},
	})
}

// validateGridRequest applies the checks binding tags cannot express.
func validateGridRequest(req GridRequest) error {
	if len(req.Photos) > cfg.Grid.MaxPhotos {
		return fmt.Errorf("maximum %d photos per grid", cfg.Grid.MaxPhotos)
	}
	for _, u := range req.Photos {
		if err := isValidPhotoURL(u); err != nil {
			return fmt.Errorf("invalid photo URL %s: %v", u, err)
		}
	}
	return nil
}

// runGenerate executes the pipeline in a goroutine and waits for either the
// result or the request timeout.
func runGenerate(req GridRequest) ([]byte, error) {
	resultChan := make(chan gridResult, 1)
	go func() {
		data, err := generateGrid(req.Photos, req.ItemName)
		resultChan <- gridResult{data, err}
	}()

	select {
	case res := <-resultChan:
		return res.data, res.err
	case <-time.After(time.Duration(cfg.Server.RequestTimeout) * time.Second):
		return nil, fmt.Errorf("grid generation timed out")
	}
}

func generateSingle(c *gin.Context) {
	var req GridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateGridRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	data, err := runGenerate(req)
	if err != nil {
		logger.Errorf("Failed to generate grid for chatid=%s: %v", req.ChatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	elapsed := time.Since(start)
	logger.Infof("Generated grid for chatid=%s | %d photos | %.2fs | %d bytes",
		req.ChatID, len(req.Photos), elapsed.Seconds(), len(data))

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", req.ChatID+".jpg"))
	c.Header("X-ChatID", req.ChatID)
	c.Header("X-Processing-Time", fmt.Sprintf("%.2fs", elapsed.Seconds()))
	c.Data(http.StatusOK, "image/jpeg", data)
}

func generateJSON(c *gin.Context) {
	var req GridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateGridRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	data, err := runGenerate(req)
	if err != nil {
		logger.Errorf("Failed to generate grid for chatid=%s: %v", req.ChatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	elapsed := time.Since(start)

	c.JSON(http.StatusOK, gin.H{
		"chatid":          req.ChatID,
		"item_name":       req.ItemName,
		"image_base64":    base64.StdEncoding.EncodeToString(data),
		"size_bytes":      len(data),
		"processing_time": fmt.Sprintf("%.2fs", elapsed.Seconds()),
	})
}

// generateBatch renders up to 50 grids in one call. Items fail
// independently; each entry in the response carries its own status.
func generateBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]gin.H, 0, len(req.Items))
	for _, item := range req.Items {
		if err := validateGridRequest(item); err != nil {
			results = append(results, gin.H{"chatid": item.ChatID, "status": "error", "error": err.Error()})
			continue
		}
		data, err := runGenerate(item)
		if err != nil {
			logger.Errorf("Batch item chatid=%s failed: %v", item.ChatID, err)
			results = append(results, gin.H{"chatid": item.ChatID, "status": "error", "error": err.Error()})
			continue
		}
		results = append(results, gin.H{
			"chatid":       item.ChatID,
			"status":       "ok",
			"image_base64": base64.StdEncoding.EncodeToString(data),
		})
	}

	c.JSON(http.StatusOK, results)
}

func enqueueGrid(c *gin.Context) {
	if asynqClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async processing disabled: redis not configured"})
		return
	}

	var req GridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateGridRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := gridKey(req.Photos, req.ItemName)
	jobID := key

	if _, err := os.Stat(gridPath(key)); err == nil {
		logger.Infof("Grid %s already exists, skipping enqueue", key)
		jobs.set(c.Request.Context(), JobStatus{JobID: jobID, ChatID: req.ChatID, Status: jobDone, Key: key})
		c.JSON(http.StatusOK, gin.H{
			"job_id":  jobID,
			"status":  jobDone,
			"message": "Grid already exists",
			"url":     fmt.Sprintf("/grids/%s.jpg", key),
		})
		return
	}

	task, err := newGenerateGridTask(GenerateGridPayload{
		JobID:    jobID,
		ChatID:   req.ChatID,
		Photos:   req.Photos,
		ItemName: req.ItemName,
		Key:      key,
	})
	if err != nil {
		logger.Errorf("Failed to build task for job %s: %v", jobID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue job"})
		return
	}
	if _, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute)); err != nil {
		logger.Errorf("Failed to enqueue job %s: %v", jobID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue job"})
		return
	}

	jobs.set(c.Request.Context(), JobStatus{JobID: jobID, ChatID: req.ChatID, Status: jobQueued})
	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": jobQueued,
		"url":    fmt.Sprintf("/grids/%s.jpg", key),
	})
}

func getJob(c *gin.Context) {
	if jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async processing disabled: redis not configured"})
		return
	}

	jobID := c.Param("id")
	st, err := jobs.get(c.Request.Context(), jobID)
	if err == redis.Nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		logger.Errorf("Failed to read status for job %s: %v", jobID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read job status"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func getGrid(c *gin.Context) {
	key := strings.TrimSuffix(c.Param("key"), ".jpg")
	// Keys are md5 hex, reject anything else before touching the filesystem.
	if len(key) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid grid key"})
		return
	}
	if _, err := hex.DecodeString(key); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid grid key"})
		return
	}

	path := gridPath(key)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Grid not found"})
		return
	} else if err != nil {
		logger.Errorf("Failed to stat grid %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to access grid"})
		return
	}
	c.File(path)
}
