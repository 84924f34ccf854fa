package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mabletask/companion/middleware"
)

const (
	serviceName    = "companion-api"
	serviceVersion = "1.0.0"
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":    "Welcome to your profile!",
		"user_id":    middleware.UserID(c),
		"user_email": c.GetString(middleware.UserEmailKey),
		"ip_address": c.ClientIP(),
	})
}
