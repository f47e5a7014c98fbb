package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"pastprep-server/catalog"
)

// Tab is one of the fixed set of paper views.
type Tab string

const (
	TabQuestionPaper Tab = "question-paper"
	TabMarkScheme    Tab = "mark-scheme"
	TabSolvedPaper   Tab = "solved-paper"
	TabBooklet       Tab = "booklet"
)

// ParseTab validates a tab name from the API.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabQuestionPaper, TabMarkScheme, TabSolvedPaper, TabBooklet:
		return Tab(s), nil
	}
	return "", ErrInvalidTab
}

var (
	ErrInvalidTab     = errors.New("session: invalid tab")
	ErrNoSelection    = errors.New("session: no paper selected")
	ErrExamInProgress = errors.New("session: exam mode locks navigation")
	ErrNoExam         = errors.New("session: no exam in progress")
)

// State is the per-user selection state handed to the presentation layer.
type State struct {
	ID              string          `json:"id"`
	Paper           *catalog.Paper  `json:"paper"`
	Path            string          `json:"path"`
	Breadcrumbs     []string        `json:"breadcrumbs"`
	Tab             Tab             `json:"tab"`
	ExamMode        bool            `json:"examMode"`
	DurationMinutes int             `json:"durationMinutes"`
	ExamStartedAt   *time.Time      `json:"examStartedAt,omitempty"`
	Meta            catalog.PaperMeta `json:"-"`
}

// FinishResult summarizes an exited exam mode session.
type FinishResult struct {
	Path            string
	Meta            catalog.PaperMeta
	DurationMinutes int
	Abandoned       bool
}

// Manager tracks selection state per user. Selecting a new paper resets
// the tab to the question-paper view and recomputes the timer duration;
// exam mode locks navigation until the timer is completed or abandoned.
type Manager struct {
	mu        sync.RWMutex
	cat       *catalog.Catalog
	durations *catalog.DurationTable
	states    map[string]*State
}

// NewManager builds a manager over the immutable catalog and duration
// table.
func NewManager(cat *catalog.Catalog, durations *catalog.DurationTable) *Manager {
	return &Manager{
		cat:       cat,
		durations: durations,
		states:    map[string]*State{},
	}
}

// Get returns a copy of the user's state, creating an empty one on first
// access.
func (m *Manager) Get(userEmail string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state(userEmail)
}

// Select resolves a path through the codec and makes it the current
// selection. On catalog.ErrNotFound the previous selection is kept empty
// for the caller to log; nothing is mutated. Fails while exam mode is on.
func (m *Manager) Select(userEmail, path string) (State, error) {
	loc, err := m.cat.DecodePath(path)
	if err != nil {
		return State{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(userEmail)
	if st.ExamMode {
		return *st, ErrExamInProgress
	}
	meta := loc.Meta()
	st.Paper = loc.Paper
	st.Path = catalog.EncodePath(loc.Breadcrumbs)
	st.Breadcrumbs = loc.Breadcrumbs
	st.Tab = TabQuestionPaper
	st.Meta = meta
	st.DurationMinutes = m.durations.Lookup(meta.ExamBoard, meta.Subject, meta.PaperCode)
	return *st, nil
}

// SetTab switches the active view tab for the current selection.
func (m *Manager) SetTab(userEmail string, tab Tab) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(userEmail)
	if st.Paper == nil {
		return *st, ErrNoSelection
	}
	st.Tab = tab
	return *st, nil
}

// StartExam enters exam mode on the current selection.
func (m *Manager) StartExam(userEmail string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(userEmail)
	if st.Paper == nil {
		return *st, ErrNoSelection
	}
	if st.ExamMode {
		return *st, ErrExamInProgress
	}
	now := time.Now().UTC()
	st.ExamMode = true
	st.ExamStartedAt = &now
	return *st, nil
}

// FinishExam exits exam mode, by completing or abandoning the timer, and
// reports the elapsed duration for mock recording.
func (m *Manager) FinishExam(userEmail string, abandoned bool) (*FinishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(userEmail)
	if !st.ExamMode || st.ExamStartedAt == nil {
		return nil, ErrNoExam
	}
	elapsed := int(time.Since(*st.ExamStartedAt).Round(time.Minute) / time.Minute)
	if elapsed < 1 {
		elapsed = 1
	}
	res := &FinishResult{
		Path:            st.Path,
		Meta:            st.Meta,
		DurationMinutes: elapsed,
		Abandoned:       abandoned,
	}
	st.ExamMode = false
	st.ExamStartedAt = nil
	return res, nil
}

func (m *Manager) state(userEmail string) *State {
	st, ok := m.states[userEmail]
	if !ok {
		st = &State{ID: uuid.NewString(), Tab: TabQuestionPaper, DurationMinutes: m.durations.DefaultMinutes()}
		m.states[userEmail] = st
	}
	return st
}
