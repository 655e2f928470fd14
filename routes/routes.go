package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mandic19/Shop-Backup/controllers"
	"github.com/mandic19/Shop-Backup/middleware"
)

// RegisterBackupRoutes wires the backup endpoints onto the router.
func RegisterBackupRoutes(r *gin.Engine, c *controllers.BackupController) {
	backups := r.Group("/backups")
	backups.Use(middleware.RateLimit(rate.Every(time.Minute/10), 5))
	{
		backups.POST("/shop", c.Trigger)
		backups.GET("/shop/status", c.Status)
	}
}
