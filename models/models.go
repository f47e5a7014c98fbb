package models

import (
	"time"
)

// Goal is a tracked paper in a user's goal list. The normalized catalog
// path is the stable cross-session reference and the uniqueness key
// within a user's goals.
type Goal struct {
	ID              string     `bson:"_id,omitempty" json:"id"`
	UserEmail       string     `bson:"userEmail" json:"-"`
	Path            string     `bson:"path" json:"path"`
	Name            string     `bson:"name" json:"name"`
	Subject         string     `bson:"subject" json:"subject"`
	Year            string     `bson:"year" json:"year"`
	Session         string     `bson:"session" json:"session"`
	ExamBoard       string     `bson:"examBoard" json:"examBoard"`
	QP              string     `bson:"qp,omitempty" json:"qp,omitempty"`
	MS              string     `bson:"ms,omitempty" json:"ms,omitempty"`
	SP              string     `bson:"sp,omitempty" json:"sp,omitempty"`
	Added           time.Time  `bson:"added" json:"added"`
	Completed       bool       `bson:"completed" json:"completed"`
	CompletedDate   *time.Time `bson:"completedDate,omitempty" json:"completedDate"`
	CompletedAsMock bool       `bson:"completedAsMock" json:"completedAsMock"`
	MockScore       *float64   `bson:"mockScore,omitempty" json:"mockScore"`
	TargetDate      *time.Time `bson:"targetDate,omitempty" json:"targetDate"`
}

// MockExam is a completed timed session. Created without a score at
// end-of-timer; the score is attached by a follow-up call after the user
// checks against the mark scheme. Score 0 is a real score, distinct from
// a nil (not yet attached) one.
type MockExam struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	UserEmail       string    `bson:"userEmail" json:"-"`
	RawPath         string    `bson:"rawPath" json:"rawPath"`
	PathParts       []string  `bson:"pathParts" json:"pathParts"`
	Subject         string    `bson:"subject" json:"subject"`
	Year            string    `bson:"year" json:"year"`
	Session         string    `bson:"session" json:"session"`
	ExamBoard       string    `bson:"examBoard" json:"examBoard"`
	PaperCode       string    `bson:"paperCode" json:"paperCode"`
	CompletedAt     time.Time `bson:"completedAt" json:"completedAt"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	Score           *float64  `bson:"score,omitempty" json:"score"`
}

// User is a profile document keyed by email. Created on first login,
// updated on every login.
type User struct {
	Email     string    `bson:"_id" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Picture   string    `bson:"picture" json:"picture"`
	Role      string    `bson:"role" json:"role"`     // RoleAdmin or RoleUser
	Status    string    `bson:"status" json:"status"` // StatusActive or StatusBanned
	IsBanned  bool      `bson:"isBanned" json:"isBanned"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	LastLogin time.Time `bson:"lastLogin" json:"lastLogin"`
}

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"

	StatusActive = "active"
	StatusBanned = "banned"
)

// SubjectPreferences is a per-user document holding the ordered list of
// subject preference identifiers ("<examBoard>-<subject-slug>", lowercase).
type SubjectPreferences struct {
	Email     string    `bson:"_id" json:"email"`
	Subjects  []string  `bson:"subjects" json:"subjects"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// GoalRequest is the body for adding a paper to the goal list.
type GoalRequest struct {
	Path       string     `json:"path" binding:"required"`
	TargetDate *time.Time `json:"targetDate"`
}

// GoalCompletionRequest toggles a goal's completion flag.
type GoalCompletionRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// MockExamRequest is the body for recording a finished timed session.
type MockExamRequest struct {
	Path            string   `json:"path" binding:"required"`
	DurationMinutes int      `json:"durationMinutes" binding:"required"`
	Score           *float64 `json:"score"`
}

// MockScoreRequest attaches a score to an existing mock record.
type MockScoreRequest struct {
	Score *float64 `json:"score" binding:"required"`
}

// PreferencesRequest replaces the user's subject preference list.
type PreferencesRequest struct {
	Subjects []string `json:"subjects" binding:"required"`
}

// SelectRequest picks a paper by its catalog path.
type SelectRequest struct {
	Path string `json:"path" binding:"required"`
}

// TabRequest switches the active view tab.
type TabRequest struct {
	Tab string `json:"tab" binding:"required"`
}

// FinishExamRequest ends exam mode. Abandoned sessions are not recorded.
type FinishExamRequest struct {
	Abandoned bool `json:"abandoned"`
}

// LoginResponse is the profile returned after a token upsert.
type LoginResponse struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Role    string `json:"role"`
}
