package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"theory-service/internal/service"
)

type UserHandler struct {
	Users    *service.UserService
	Progress *service.ProgressService
}

func NewUserHandler(users *service.UserService, progress *service.ProgressService) *UserHandler {
	return &UserHandler{Users: users, Progress: progress}
}

func (h *UserHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.Progress.ComputeDashboard(context.Background(), c.GetString("userID"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Utilisateur non trouvé"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erreur lors de la récupération du tableau de bord"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": dashboard})
}

func (h *UserHandler) GetIncorrectAnswers(c *gin.Context) {
	incorrect, err := h.Progress.IncorrectAnswers(context.Background(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erreur lors de la récupération des réponses incorrectes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(incorrect), "questions": incorrect})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.Users.Profile(context.Background(), c.GetString("userID"))
	if err != nil {
		status, msg := mapUserError(err)
		c.JSON(status, gin.H{"success": false, "message": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"user":           profile.User,
		"stats":          profile.Stats,
		"recentAttempts": profile.RecentAttempts,
	})
}

func (h *UserHandler) GetProgress(c *gin.Context) {
	progress, err := h.Users.Progress(context.Background(), c.GetString("userID"))
	if err != nil {
		status, msg := mapUserError(err)
		c.JSON(status, gin.H{"success": false, "message": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "progress": progress})
}
