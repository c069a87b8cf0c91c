package service

import (
	"fmt"
	"time"

	"theory-service/internal/models"
)

// XP per action, applied to a single submission. Display-only: the
// persisted xp snapshot always comes from RecomputeXP over the full
// attempt history.
const (
	xpAttempt      = 10
	xpPassBonus    = 50
	xpPerfectBonus = 100
)

// Level thresholds: level = xp/xpPerLevel + 1.
const xpPerLevel = 200

var levelTitles = map[int]string{
	1: "Novice",
	2: "Apprenti",
	3: "Conducteur Prudent",
	4: "Expert",
	5: "Maître du Code",
	6: "Légende de la Route",
}

// CalcXPEarned returns the reward figure for one submission.
func CalcXPEarned(passed bool, score float64) int {
	xp := xpAttempt
	if passed {
		xp += xpPassBonus
	}
	if score == 100 {
		xp += xpPerfectBonus
	}
	return xp
}

// RecomputeXP derives total xp from the full attempt history: a flat base
// per attempt plus a bonus per pass.
func RecomputeXP(attempts []models.TestAttempt) int {
	passed := 0
	for _, a := range attempts {
		if a.Passed {
			passed++
		}
	}
	return passed*xpPassBonus + len(attempts)*xpAttempt
}

func CalcLevel(totalXP int) int {
	return totalXP/xpPerLevel + 1
}

func LevelTitle(level int) string {
	if title, ok := levelTitles[level]; ok {
		return title
	}
	return fmt.Sprintf("Niveau %d", level)
}

// NextStreak applies the consecutive-day rule: same calendar day leaves the
// streak alone, the next day extends it, any larger gap resets it to 1.
// Returns the new streak, the activity date to persist, and whether
// anything changed.
func NextStreak(streak int, lastActivity *time.Time, now time.Time) (int, time.Time, bool) {
	if lastActivity == nil {
		return 1, now, true
	}
	today := dayOf(now)
	lastDay := dayOf(*lastActivity)
	diffDays := int(today.Sub(lastDay).Hours() / 24)
	if diffDays == 0 {
		return streak, *lastActivity, false
	}
	if diffDays == 1 {
		return streak + 1, now, true
	}
	return 1, now, true
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type BadgeRule struct {
	ID        string
	Name      string
	Icon      string
	Condition func(user *models.User, attempts []models.TestAttempt) bool
}

// BadgeRules is the fixed, ordered rule set. Rules reading user.XP or
// user.Streak expect the caller to have refreshed those fields first.
var BadgeRules = []BadgeRule{
	{ID: "first-test", Name: "Premier pas", Icon: "award",
		Condition: func(_ *models.User, attempts []models.TestAttempt) bool { return len(attempts) >= 1 }},
	{ID: "passes-5", Name: "Expert débutant", Icon: "trophy",
		Condition: func(_ *models.User, attempts []models.TestAttempt) bool { return countPassed(attempts) >= 5 }},
	{ID: "passes-10", Name: "Expert signalisation", Icon: "shield-check",
		Condition: func(_ *models.User, attempts []models.TestAttempt) bool { return countPassed(attempts) >= 10 }},
	{ID: "streak-7", Name: "Série de 7", Icon: "flame",
		Condition: func(user *models.User, _ []models.TestAttempt) bool { return user.Streak >= 7 }},
	{ID: "streak-30", Name: "Série de 30", Icon: "flame",
		Condition: func(user *models.User, _ []models.TestAttempt) bool { return user.Streak >= 30 }},
	{ID: "perfect-score", Name: "Score Parfait", Icon: "star",
		Condition: func(_ *models.User, attempts []models.TestAttempt) bool {
			for _, a := range attempts {
				if a.Score == 100 {
					return true
				}
			}
			return false
		}},
	{ID: "xp-1000", Name: "Code Master", Icon: "crown",
		Condition: func(user *models.User, _ []models.TestAttempt) bool { return user.XP >= 1000 }},
	{ID: "xp-5000", Name: "Légende", Icon: "crown",
		Condition: func(user *models.User, _ []models.TestAttempt) bool { return user.XP >= 5000 }},
}

func countPassed(attempts []models.TestAttempt) int {
	n := 0
	for _, a := range attempts {
		if a.Passed {
			n++
		}
	}
	return n
}

// EvaluateBadges returns the badges whose rules have become true and that
// the user does not already hold. It never mutates the user; awarding at
// most once per id is the store's job.
func EvaluateBadges(user *models.User, attempts []models.TestAttempt, now time.Time) []models.Badge {
	var earned []models.Badge
	for _, rule := range BadgeRules {
		if user.HasBadge(rule.ID) {
			continue
		}
		if rule.Condition(user, attempts) {
			earned = append(earned, models.Badge{
				ID:         rule.ID,
				Name:       rule.Name,
				Icon:       rule.Icon,
				EarnedDate: now,
			})
		}
	}
	return earned
}
