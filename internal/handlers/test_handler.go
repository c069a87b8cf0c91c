package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"theory-service/internal/models"
	"theory-service/internal/service"
)

type TestHandler struct {
	Service *service.TestService
	Scoring *service.ScoringService
	Users   *service.UserService
}

func NewTestHandler(s *service.TestService, scoring *service.ScoringService, users *service.UserService) *TestHandler {
	return &TestHandler{Service: s, Scoring: scoring, Users: users}
}

func (h *TestHandler) ListTests(c *gin.Context) {
	var isPremium *bool
	if v := c.Query("isPremium"); v != "" {
		b := v == "true"
		isPremium = &b
	}
	tests, err := h.Service.ListPublished(context.Background(), c.Query("category"), c.Query("difficulty"), isPremium)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erreur lors de la récupération des tests"})
		return
	}

	items := make([]gin.H, 0, len(tests))
	for i := range tests {
		t := &tests[i]
		items = append(items, gin.H{
			"id":            t.ID,
			"title":         t.Title,
			"description":   t.Description,
			"category":      t.Category,
			"difficulty":    t.Difficulty,
			"duration":      t.Duration,
			"passThreshold": t.PassThreshold,
			"isPremium":     t.IsPremium,
			"questionCount": t.QuestionCount(),
			"attemptCount":  t.AttemptCount,
			"passRate":      t.PassRate(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "tests": items})
}

// GetTest delivers a test for taking. Questions come back sanitized: never
// the answer key or the explanation before submission.
func (h *TestHandler) GetTest(c *gin.Context) {
	user, err := h.Users.GetUser(context.Background(), c.GetString("userID"))
	if err != nil {
		status, msg := mapUserError(err)
		c.JSON(status, gin.H{"success": false, "message": msg})
		return
	}

	test, questions, err := h.Service.GetForTaking(context.Background(), c.Param("id"), user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Test non trouvé"})
		case errors.Is(err, service.ErrPremiumRequired):
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Un abonnement premium est requis pour ce test"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erreur lors de la récupération du test"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"test": gin.H{
			"id":            test.ID,
			"title":         test.Title,
			"description":   test.Description,
			"category":      test.Category,
			"difficulty":    test.Difficulty,
			"duration":      test.Duration,
			"passThreshold": test.PassThreshold,
			"isPremium":     test.IsPremium,
			"questionCount": test.QuestionCount(),
			"questions":     questions,
		},
	})
}

type submitRequest struct {
	Answers   []models.SubmittedAnswer `json:"answers" binding:"required"`
	TimeTaken int                      `json:"timeTaken"`
}

func (h *TestHandler) SubmitTest(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Soumission invalide", "error": err.Error()})
		return
	}

	result, err := h.Scoring.SubmitAttempt(context.Background(), c.GetString("userID"), c.Param("id"), req.Answers, req.TimeTaken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Test non trouvé"})
		case errors.Is(err, service.ErrNoQuestions):
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Configuration du test invalide"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erreur lors de la soumission du test"})
		}
		return
	}

	message := "Test échoué. Continuez à vous entraîner!"
	if result.Passed {
		message = "Félicitations! Vous avez réussi le test!"
	}
	newBadges := result.NewBadges
	if newBadges == nil {
		newBadges = []models.Badge{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        message,
		"testAttempt":    result.Attempt,
		"score":          result.Score,
		"passed":         result.Passed,
		"correctCount":   result.CorrectCount,
		"totalQuestions": result.QuestionCount,
		"xpEarned":       result.XPEarned,
		"newBadges":      newBadges,
	})
}

func (h *TestHandler) GetAttempts(c *gin.Context) {
	attempts, err := h.Service.AttemptsForUser(context.Background(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erreur lors de la récupération des tentatives"})
		return
	}
	if attempts == nil {
		attempts = []models.TestAttempt{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(attempts), "attempts": attempts})
}

type createTestRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Questions     []string `json:"questions"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Duration      int      `json:"duration"`
	PassThreshold *float64 `json:"passThreshold"`
	IsPremium     bool     `json:"isPremium"`
	IsPublished   *bool    `json:"isPublished"`
}

func (r *createTestRequest) toModel() *models.Test {
	test := &models.Test{
		Title:         r.Title,
		Description:   r.Description,
		Questions:     r.Questions,
		Category:      r.Category,
		Difficulty:    r.Difficulty,
		Duration:      r.Duration,
		PassThreshold: 70,
		IsPremium:     r.IsPremium,
		IsPublished:   true,
	}
	if test.Category == "" {
		test.Category = "general"
	}
	if test.Difficulty == "" {
		test.Difficulty = "moyen"
	}
	if test.Duration == 0 {
		test.Duration = 30
	}
	if r.PassThreshold != nil {
		test.PassThreshold = *r.PassThreshold
	}
	if r.IsPublished != nil {
		test.IsPublished = *r.IsPublished
	}
	return test
}

func (h *TestHandler) CreateTest(c *gin.Context) {
	var req createTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Requête invalide", "error": err.Error()})
		return
	}
	test := req.toModel()
	if err := test.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if err := h.Service.Create(context.Background(), test); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erreur lors de la création du test"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Test créé avec succès", "test": test})
}

func (h *TestHandler) UpdateTest(c *gin.Context) {
	var update map[string]interface{}
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Requête invalide", "error": err.Error()})
		return
	}
	if err := h.Service.Update(context.Background(), c.Param("id"), update); err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Test non trouvé"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erreur lors de la mise à jour du test"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Test mis à jour avec succès"})
}

func (h *TestHandler) DeleteTest(c *gin.Context) {
	if err := h.Service.Delete(context.Background(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Test non trouvé"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erreur lors de la suppression du test"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Test supprimé avec succès"})
}

func mapUserError(err error) (int, string) {
	if errors.Is(err, service.ErrUserNotFound) {
		return http.StatusNotFound, "Utilisateur non trouvé"
	}
	return http.StatusInternalServerError, "Erreur lors de la récupération de l'utilisateur"
}
