package service

import (
	"context"
	"errors"
	"math"
	"time"

	"theory-service/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type ProgressService struct {
	users     UserStore
	attempts  AttemptStore
	tests     TestStore
	questions QuestionStore
	now       func() time.Time
}

func NewProgressService(users UserStore, attempts AttemptStore, tests TestStore, questions QuestionStore) *ProgressService {
	return &ProgressService{
		users:     users,
		attempts:  attempts,
		tests:     tests,
		questions: questions,
		now:       time.Now,
	}
}

type DayActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CategoryProgress struct {
	Total        int     `json:"total"`
	Passed       int     `json:"passed"`
	AverageScore float64 `json:"averageScore"`
}

type Dashboard struct {
	XP                int                         `json:"xp"`
	Level             int                         `json:"level"`
	LevelTitle        string                      `json:"levelTitle"`
	XPForNextLevel    int                         `json:"xpForNextLevel"`
	XPProgressPercent int                         `json:"xpProgressPercent"`
	Streak            int                         `json:"streak"`
	Badges            []models.Badge              `json:"badges"`
	TotalAttempts     int                         `json:"totalAttempts"`
	PassedAttempts    int                         `json:"passedAttempts"`
	WeeklyActivity    []DayActivity               `json:"weeklyActivity"`
	CategoryProgress  map[string]CategoryProgress `json:"categoryProgress"`
	CoursesCompleted  int                         `json:"coursesCompleted"`
}

// ComputeDashboard recomputes xp, level and the aggregate breakdowns from
// the full attempt history and persists the xp/level snapshot. It is a pure
// read of streak and badges: only attempt submission advances those.
// Running it twice with no new attempts yields identical output.
func (s *ProgressService) ComputeDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	attempts, err := s.attempts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	xp := RecomputeXP(attempts)
	level := CalcLevel(xp)

	categories, err := s.categoryBreakdown(ctx, attempts)
	if err != nil {
		return nil, err
	}

	// Snapshot for quick display elsewhere; overwritten on every
	// recomputation, never trusted as ground truth.
	if err := s.users.UpdateXP(ctx, userID, xp, level); err != nil {
		return nil, err
	}

	badges := user.Badges
	if badges == nil {
		badges = []models.Badge{}
	}

	return &Dashboard{
		XP:                xp,
		Level:             level,
		LevelTitle:        LevelTitle(level),
		XPForNextLevel:    level * xpPerLevel,
		XPProgressPercent: int(math.Round(float64(xp%xpPerLevel) / xpPerLevel * 100)),
		Streak:            user.Streak,
		Badges:            badges,
		TotalAttempts:     len(attempts),
		PassedAttempts:    countPassed(attempts),
		WeeklyActivity:    weeklyActivity(attempts, s.now()),
		CategoryProgress:  categories,
		CoursesCompleted:  len(user.CoursesCompleted),
	}, nil
}

// weeklyActivity buckets attempts into the trailing 7 calendar days,
// oldest day first.
func weeklyActivity(attempts []models.TestAttempt, now time.Time) []DayActivity {
	const dayFormat = "2006-01-02"
	counts := make(map[string]int)
	for _, a := range attempts {
		counts[a.CompletedAt.In(now.Location()).Format(dayFormat)]++
	}
	today := dayOf(now)
	days := make([]DayActivity, 0, 7)
	for i := 6; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(dayFormat)
		days = append(days, DayActivity{Date: date, Count: counts[date]})
	}
	return days
}

// categoryBreakdown groups attempts by their test's category. Attempts
// whose test has since been deleted are skipped, not fatal.
func (s *ProgressService) categoryBreakdown(ctx context.Context, attempts []models.TestAttempt) (map[string]CategoryProgress, error) {
	testIDs := make([]string, 0, len(attempts))
	seen := make(map[string]bool)
	for _, a := range attempts {
		if !seen[a.TestID] {
			seen[a.TestID] = true
			testIDs = append(testIDs, a.TestID)
		}
	}
	tests, err := s.tests.FindByIDs(ctx, testIDs)
	if err != nil {
		return nil, err
	}
	categoryOf := make(map[string]string, len(tests))
	for _, t := range tests {
		categoryOf[t.ID] = t.Category
	}

	totals := make(map[string]CategoryProgress)
	sums := make(map[string]float64)
	for _, a := range attempts {
		category, ok := categoryOf[a.TestID]
		if !ok {
			continue
		}
		p := totals[category]
		p.Total++
		if a.Passed {
			p.Passed++
		}
		totals[category] = p
		sums[category] += a.Score
	}
	for category, p := range totals {
		p.AverageScore = sums[category] / float64(p.Total)
		totals[category] = p
	}
	return totals, nil
}

type IncorrectAnswer struct {
	Question       models.Question `json:"question"`
	SelectedAnswer int             `json:"selectedAnswer"`
	MissedAt       time.Time       `json:"missedAt"`
}

// IncorrectAnswers lists every question the user has answered wrong across
// all attempts, deduplicated by question id with the most recent miss
// winning. Questions deleted since are omitted.
func (s *ProgressService) IncorrectAnswers(ctx context.Context, userID string) ([]IncorrectAnswer, error) {
	attempts, err := s.attempts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	type miss struct {
		selected int
		missedAt time.Time
	}
	misses := make(map[string]miss)
	order := make([]string, 0)
	// History is newest first, so the first miss seen per question is the
	// most recent one.
	for _, attempt := range attempts {
		for _, answer := range attempt.Answers {
			if answer.IsCorrect {
				continue
			}
			if _, ok := misses[answer.QuestionID]; ok {
				continue
			}
			misses[answer.QuestionID] = miss{selected: answer.SelectedAnswer, missedAt: attempt.CompletedAt}
			order = append(order, answer.QuestionID)
		}
	}
	if len(order) == 0 {
		return []IncorrectAnswer{}, nil
	}

	questions, err := s.questions.FindByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	result := make([]IncorrectAnswer, 0, len(order))
	for _, id := range order {
		question, ok := byID[id]
		if !ok {
			continue
		}
		m := misses[id]
		result = append(result, IncorrectAnswer{
			Question:       question,
			SelectedAnswer: m.selected,
			MissedAt:       m.missedAt,
		})
	}
	return result, nil
}
