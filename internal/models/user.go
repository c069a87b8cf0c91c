package models

import "time"

type Badge struct {
	ID         string    `bson:"id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Icon       string    `bson:"icon" json:"icon"`
	EarnedDate time.Time `bson:"earned_date" json:"earnedDate"`
}

type User struct {
	ID                string     `bson:"_id,omitempty" json:"id"`
	Name              string     `bson:"name" json:"name"`
	Email             string     `bson:"email" json:"email"`
	Phone             string     `bson:"phone" json:"phone,omitempty"`
	Avatar            string     `bson:"avatar" json:"avatar,omitempty"`
	Role              string     `bson:"role" json:"role"`
	IsPremium         bool       `bson:"is_premium" json:"isPremium"`
	PremiumExpiryDate *time.Time `bson:"premium_expiry_date,omitempty" json:"premiumExpiryDate,omitempty"`

	// Progression. XP and level are snapshots of the last recomputation
	// from attempt history, not incrementally trusted values.
	XP               int        `bson:"xp" json:"xp"`
	Level            int        `bson:"level" json:"level"`
	Streak           int        `bson:"streak" json:"streak"`
	LastActivityDate *time.Time `bson:"last_activity_date,omitempty" json:"lastActivityDate,omitempty"`
	Badges           []Badge    `bson:"badges" json:"badges"`

	CoursesCompleted []string  `bson:"courses_completed" json:"coursesCompleted"`
	TestsAttempted   []string  `bson:"tests_attempted" json:"testsAttempted"`
	IsActive         bool      `bson:"is_active" json:"isActive"`
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsPremiumActive reports whether the premium flag is currently effective.
// No expiry date means lifetime premium.
func (u *User) IsPremiumActive() bool {
	if !u.IsPremium {
		return false
	}
	if u.PremiumExpiryDate == nil {
		return true
	}
	return u.PremiumExpiryDate.After(time.Now())
}

// HasBadge reports whether the badge id has already been awarded.
func (u *User) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}
