package service

import (
	"context"
	"errors"

	"theory-service/internal/models"
	"theory-service/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

type UserService struct {
	Users    *repository.UserRepository
	Attempts *repository.AttemptRepository
	Tests    *repository.TestRepository
}

func NewUserService(users *repository.UserRepository, attempts *repository.AttemptRepository, tests *repository.TestRepository) *UserService {
	return &UserService{Users: users, Attempts: attempts, Tests: tests}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

type ProfileStats struct {
	CoursesCompleted int     `json:"coursesCompleted"`
	TotalTests       int     `json:"totalTests"`
	PassedTests      int     `json:"passedTests"`
	AverageScore     float64 `json:"averageScore"`
}

type Profile struct {
	User           *models.User         `json:"user"`
	Stats          ProfileStats         `json:"stats"`
	RecentAttempts []models.TestAttempt `json:"recentAttempts"`
}

func (s *UserService) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := ProfileStats{
		CoursesCompleted: len(user.CoursesCompleted),
		TotalTests:       len(attempts),
		PassedTests:      countPassed(attempts),
	}
	if len(attempts) > 0 {
		sum := 0.0
		for _, a := range attempts {
			sum += a.Score
		}
		stats.AverageScore = sum / float64(len(attempts))
	}

	recent := attempts
	if len(recent) > 10 {
		recent = recent[:10]
	}
	if recent == nil {
		recent = []models.TestAttempt{}
	}
	return &Profile{User: user, Stats: stats, RecentAttempts: recent}, nil
}

type UserProgress struct {
	TestsByCategory     map[string]CategoryProgress `json:"testsByCategory"`
	TotalTestsAttempted int                         `json:"totalTestsAttempted"`
	TotalCoursesDone    int                         `json:"totalCoursesCompleted"`
}

// Progress breaks the user's attempts down by test category. Attempts on
// deleted tests are skipped.
func (s *UserService) Progress(ctx context.Context, userID string) (*UserProgress, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	testIDs := make([]string, 0, len(attempts))
	seen := make(map[string]bool)
	for _, a := range attempts {
		if !seen[a.TestID] {
			seen[a.TestID] = true
			testIDs = append(testIDs, a.TestID)
		}
	}
	tests, err := s.Tests.FindByIDs(ctx, testIDs)
	if err != nil {
		return nil, err
	}
	categoryOf := make(map[string]string, len(tests))
	for _, t := range tests {
		categoryOf[t.ID] = t.Category
	}

	byCategory := make(map[string]CategoryProgress)
	sums := make(map[string]float64)
	for _, a := range attempts {
		category, ok := categoryOf[a.TestID]
		if !ok {
			continue
		}
		p := byCategory[category]
		p.Total++
		if a.Passed {
			p.Passed++
		}
		byCategory[category] = p
		sums[category] += a.Score
	}
	for category, p := range byCategory {
		p.AverageScore = sums[category] / float64(p.Total)
		byCategory[category] = p
	}

	return &UserProgress{
		TestsByCategory:     byCategory,
		TotalTestsAttempted: len(attempts),
		TotalCoursesDone:    len(user.CoursesCompleted),
	}, nil
}
