package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"theory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAttemptScoresAgainstFullQuestionList(t *testing.T) {
	f := newScoringFixture()
	ctx := context.Background()

	// q3 answered with an out-of-range index: incorrect, never panics.
	answers := []models.SubmittedAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
		{QuestionID: "q2", SelectedAnswer: 1},
		{QuestionID: "q3", SelectedAnswer: 9},
		{QuestionID: "q4", SelectedAnswer: 3},
	}
	result, err := f.scoring.SubmitAttempt(ctx, "u1", "t1", answers, 120)
	require.NoError(t, err)

	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 4, result.QuestionCount)
	assert.Equal(t, 75.0, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, 60, result.XPEarned)

	// Attempt record written with the graded answers.
	history, err := f.attempts.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 75.0, history[0].Score)
	assert.True(t, history[0].Passed)
	assert.Equal(t, 120, history[0].TimeTaken)
	require.Len(t, history[0].Answers, 4)
	assert.False(t, history[0].Answers[2].IsCorrect)

	// Question statistics bumped once per graded answer.
	assert.Equal(t, 1, f.questions.questions["q1"].TimesAsked)
	assert.Equal(t, 1, f.questions.questions["q1"].TimesCorrect)
	assert.Equal(t, 1, f.questions.questions["q3"].TimesAsked)
	assert.Equal(t, 0, f.questions.questions["q3"].TimesCorrect)

	// Test statistics.
	assert.Equal(t, 1, f.tests.tests["t1"].AttemptCount)
	assert.Equal(t, 1, f.tests.tests["t1"].PassCount)

	// Progression: one passed attempt → 60 xp, level 1, streak started,
	// first-test badge.
	user := f.users.users["u1"]
	assert.Equal(t, 60, user.XP)
	assert.Equal(t, 1, user.Level)
	assert.Equal(t, 1, user.Streak)
	require.Len(t, result.NewBadges, 1)
	assert.Equal(t, "first-test", result.NewBadges[0].ID)
	assert.Equal(t, []string{"attempt-1"}, user.TestsAttempted)

	// Events published for the submission and the badge.
	assert.Len(t, f.events.byType("test.attempt.submitted"), 1)
	assert.Len(t, f.events.byType("user.badge.awarded"), 1)

	// Review carries the full question, answer key included.
	require.Len(t, result.Attempt.Answers, 4)
	require.NotNil(t, result.Attempt.Answers[0].Question)
	assert.Equal(t, 0, result.Attempt.Answers[0].Question.CorrectAnswer)
	assert.Equal(t, "Test signalisation", result.Attempt.Test.Title)
}

func TestSubmitAttemptEmptyAnswers(t *testing.T) {
	f := newScoringFixture()

	result, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t1", nil, 5)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, 0, result.CorrectCount)
	assert.Equal(t, 4, result.QuestionCount)
	assert.Equal(t, 1, f.tests.tests["t1"].AttemptCount)
	assert.Equal(t, 0, f.tests.tests["t1"].PassCount)
}

func TestSubmitAttemptZeroThresholdPassesEmptySubmission(t *testing.T) {
	f := newScoringFixture()
	f.tests.tests["t1"].PassThreshold = 0

	result, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t1", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.True(t, result.Passed)
}

func TestSubmitAttemptUnknownQuestionDropped(t *testing.T) {
	f := newScoringFixture()

	answers := []models.SubmittedAnswer{
		{QuestionID: "ghost", SelectedAnswer: 0},
		{QuestionID: "q1", SelectedAnswer: 0},
	}
	result, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t1", answers, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 4, result.QuestionCount)
	assert.Equal(t, 25.0, result.Score)

	history, _ := f.attempts.FindByUser(context.Background(), "u1")
	require.Len(t, history, 1)
	assert.Len(t, history[0].Answers, 1)
}

func TestSubmitAttemptDuplicateQuestionDoubleCredit(t *testing.T) {
	f := newScoringFixture()

	// q1 answered twice, once right once wrong: both entries count and the
	// question's stats are bumped twice.
	answers := []models.SubmittedAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
		{QuestionID: "q1", SelectedAnswer: 3},
	}
	result, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t1", answers, 30)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 25.0, result.Score)
	assert.Equal(t, 2, f.questions.questions["q1"].TimesAsked)
	assert.Equal(t, 1, f.questions.questions["q1"].TimesCorrect)

	history, _ := f.attempts.FindByUser(context.Background(), "u1")
	require.Len(t, history[0].Answers, 2)
}

func TestSubmitAttemptTestNotFound(t *testing.T) {
	f := newScoringFixture()

	_, err := f.scoring.SubmitAttempt(context.Background(), "u1", "missing", nil, 10)
	assert.ErrorIs(t, err, ErrTestNotFound)

	history, _ := f.attempts.FindByUser(context.Background(), "u1")
	assert.Empty(t, history)
}

func TestSubmitAttemptZeroQuestionTest(t *testing.T) {
	f := newScoringFixture()
	f.tests.tests["t2"] = &models.Test{ID: "t2", Title: "Vide", PassThreshold: 70}

	_, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t2", nil, 10)
	assert.ErrorIs(t, err, ErrNoQuestions)

	// Aborts before any persistence.
	history, _ := f.attempts.FindByUser(context.Background(), "u1")
	assert.Empty(t, history)
	assert.Equal(t, 0, f.tests.tests["t2"].AttemptCount)
}

func TestSubmitAttemptScoreGranularity(t *testing.T) {
	f := newScoringFixture()

	// A 10-question test: every score is a multiple of 10.
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = "g" + string(rune('0'+i))
		f.questions.questions[ids[i]] = &models.Question{
			ID:            ids[i],
			Options:       []string{"A", "B"},
			CorrectAnswer: 0,
		}
	}
	f.tests.tests["t10"] = &models.Test{ID: "t10", Title: "Dix", Questions: ids, PassThreshold: 70}

	answers := make([]models.SubmittedAnswer, 10)
	for i := range answers {
		selected := 0
		if i >= 7 { // 7 correct, 3 wrong
			selected = 1
		}
		answers[i] = models.SubmittedAnswer{QuestionID: ids[i], SelectedAnswer: selected}
	}
	result, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t10", answers, 60)
	require.NoError(t, err)
	assert.Equal(t, 70.0, result.Score)
	assert.True(t, result.Passed)
}

func TestSubmitAttemptConcurrent(t *testing.T) {
	f := newScoringFixture()
	const k = 25

	allCorrect := []models.SubmittedAnswer{
		{QuestionID: "q1", SelectedAnswer: 0},
		{QuestionID: "q2", SelectedAnswer: 1},
		{QuestionID: "q3", SelectedAnswer: 2},
		{QuestionID: "q4", SelectedAnswer: 3},
	}

	var wg sync.WaitGroup
	errs := make(chan error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t1", allCorrect, 60)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	test := f.tests.tests["t1"]
	assert.Equal(t, k, test.AttemptCount)
	assert.Equal(t, k, test.PassCount)
	assert.LessOrEqual(t, test.PassCount, test.AttemptCount)
	for _, id := range []string{"q1", "q2", "q3", "q4"} {
		assert.Equal(t, k, f.questions.questions[id].TimesAsked)
		assert.Equal(t, k, f.questions.questions[id].TimesCorrect)
	}

	history, _ := f.attempts.FindByUser(context.Background(), "u1")
	assert.Len(t, history, k)

	// The xp snapshot is last-write-wins under concurrency, so settle it
	// with one sequential submission: the recompute then covers the whole
	// history deterministically.
	_, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t1", allCorrect, 60)
	require.NoError(t, err)
	assert.Equal(t, (k+1)*60, f.users.users["u1"].XP)
	assert.Equal(t, k+1, f.tests.tests["t1"].AttemptCount)

	// first-test awarded exactly once despite the race.
	count := 0
	for _, b := range f.users.users["u1"].Badges {
		if b.ID == "first-test" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSubmitAttemptStreakAdvances(t *testing.T) {
	f := newScoringFixture()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	f.scoring.now = func() time.Time { return now }

	yesterday := now.AddDate(0, 0, -1)
	f.users.users["u1"].Streak = 3
	f.users.users["u1"].LastActivityDate = &yesterday

	_, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t1", nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, f.users.users["u1"].Streak)
	assert.True(t, f.users.users["u1"].LastActivityDate.Equal(now))
}

func TestSubmitAttemptStreakResetsAfterGap(t *testing.T) {
	f := newScoringFixture()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	f.scoring.now = func() time.Time { return now }

	threeDaysAgo := now.AddDate(0, 0, -3)
	f.users.users["u1"].Streak = 9
	f.users.users["u1"].LastActivityDate = &threeDaysAgo

	_, err := f.scoring.SubmitAttempt(context.Background(), "u1", "t1", nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, f.users.users["u1"].Streak)
}

func TestGradeSubmissionPure(t *testing.T) {
	questions := []models.Question{
		{ID: "a", Options: []string{"x", "y"}, CorrectAnswer: 1},
		{ID: "b", Options: []string{"x", "y", "z"}, CorrectAnswer: 0},
	}
	answers := []models.SubmittedAnswer{
		{QuestionID: "a", SelectedAnswer: 1},
		{QuestionID: "b", SelectedAnswer: 2},
		{QuestionID: "nope", SelectedAnswer: 0},
	}
	graded, correct := GradeSubmission(questions, answers)
	assert.Equal(t, 1, correct)
	require.Len(t, graded, 2)
	assert.True(t, graded[0].IsCorrect)
	assert.False(t, graded[1].IsCorrect)
}
