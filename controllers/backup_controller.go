package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mandic19/Shop-Backup/jobs"
)

// BackupTrigger is what the controller needs from the backup job.
type BackupTrigger interface {
	TriggerAsync() error
	Status() jobs.RunStatus
}

// BackupController exposes the backup job over HTTP.
type BackupController struct {
	job BackupTrigger
}

// NewBackupController creates a BackupController.
func NewBackupController(job BackupTrigger) *BackupController {
	return &BackupController{job: job}
}

// Trigger starts an asynchronous backup run.
func (c *BackupController) Trigger(ctx *gin.Context) {
	if err := c.job.TriggerAsync(); err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "backup already running"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// Status reports the most recent backup run.
func (c *BackupController) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.job.Status())
}
