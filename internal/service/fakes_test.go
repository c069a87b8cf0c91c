package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"theory-service/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory stores backing the service tests. All mutations are
// mutex-guarded so the concurrency tests exercise real interleavings.

type fakeTestStore struct {
	mu    sync.Mutex
	tests map[string]*models.Test
}

func newFakeTestStore() *fakeTestStore {
	return &fakeTestStore{tests: make(map[string]*models.Test)}
}

func (f *fakeTestStore) FindByID(_ context.Context, id string) (*models.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tests[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTestStore) FindByIDs(_ context.Context, ids []string) ([]models.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Test
	for _, id := range ids {
		if t, ok := f.tests[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTestStore) IncrementAttemptStats(_ context.Context, id string, passed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tests[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	t.AttemptCount++
	if passed {
		t.PassCount++
	}
	return nil
}

type fakeQuestionStore struct {
	mu        sync.Mutex
	questions map[string]*models.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{questions: make(map[string]*models.Question)}
}

func (f *fakeQuestionStore) FindByIDs(_ context.Context, ids []string) ([]models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Question
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeQuestionStore) IncrementStats(_ context.Context, id string, correct bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	q.TimesAsked++
	if correct {
		q.TimesCorrect++
	}
	return nil
}

type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts []models.TestAttempt
	seq      int
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{}
}

func (f *fakeAttemptStore) Create(_ context.Context, attempt *models.TestAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	attempt.ID = fmt.Sprintf("attempt-%d", f.seq)
	f.attempts = append(f.attempts, *attempt)
	return nil
}

// FindByUser returns newest first, matching the repository's sort.
func (f *fakeAttemptStore) FindByUser(_ context.Context, userID string) ([]models.TestAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TestAttempt
	for i := len(f.attempts) - 1; i >= 0; i-- {
		if f.attempts[i].UserID == userID {
			out = append(out, f.attempts[i])
		}
	}
	return out, nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *u
	cp.Badges = append([]models.Badge(nil), u.Badges...)
	return &cp, nil
}

func (f *fakeUserStore) AppendAttempt(_ context.Context, userID, attemptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.TestsAttempted = append(u.TestsAttempted, attemptID)
	return nil
}

func (f *fakeUserStore) UpdateXP(_ context.Context, userID string, xp, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.XP = xp
	u.Level = level
	return nil
}

func (f *fakeUserStore) UpdateStreak(_ context.Context, userID string, streak int, lastActivity time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.Streak = streak
	u.LastActivityDate = &lastActivity
	return nil
}

func (f *fakeUserStore) AwardBadge(_ context.Context, userID string, badge models.Badge) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	for _, b := range u.Badges {
		if b.ID == badge.ID {
			return false, nil
		}
	}
	u.Badges = append(u.Badges, badge)
	return true, nil
}

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type fakeEventSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEventSink) Publish(eventType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Type: eventType, Payload: payload})
	return nil
}

func (f *fakeEventSink) byType(eventType string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// scoringFixture wires a scoring service over the fakes, seeded with the
// four-question reference test (correct indices 0,1,2,3, threshold 70%)
// and one user.
type scoringFixture struct {
	tests     *fakeTestStore
	questions *fakeQuestionStore
	attempts  *fakeAttemptStore
	users     *fakeUserStore
	events    *fakeEventSink
	scoring   *ScoringService
}

func newScoringFixture() *scoringFixture {
	f := &scoringFixture{
		tests:     newFakeTestStore(),
		questions: newFakeQuestionStore(),
		attempts:  newFakeAttemptStore(),
		users:     newFakeUserStore(),
		events:    &fakeEventSink{},
	}
	for i, id := range []string{"q1", "q2", "q3", "q4"} {
		f.questions.questions[id] = &models.Question{
			ID:            id,
			Prompt:        "Question " + id,
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: i,
			Explanation:   "Explication " + id,
			Category:      "signalisation",
			Difficulty:    "moyen",
			IsActive:      true,
		}
	}
	f.tests.tests["t1"] = &models.Test{
		ID:            "t1",
		Title:         "Test signalisation",
		Description:   "Panneaux et marquages",
		Questions:     []string{"q1", "q2", "q3", "q4"},
		Category:      "signalisation",
		Difficulty:    "moyen",
		Duration:      30,
		PassThreshold: 70,
		IsPublished:   true,
	}
	f.users.users["u1"] = &models.User{ID: "u1", Name: "Amine", Role: "user", IsActive: true}
	f.scoring = NewScoringService(f.tests, f.questions, f.attempts, f.users, f.events)
	return f
}
