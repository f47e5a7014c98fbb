package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastprep-server/catalog"
)

const sessionFixture = `
IAL:
  Mathematics:
    "2022":
      May-June:
        - name: P1
          qp: https://example.com/p1-qp.pdf
          ms: https://example.com/p1-ms.pdf
        - name: P3
          qp: https://example.com/p3-qp.pdf
`

func newManager(t *testing.T) *Manager {
	t.Helper()
	cat, err := catalog.Parse([]byte(sessionFixture))
	require.NoError(t, err)
	durations, err := catalog.LoadDurations("testdata/does-not-exist.yaml", 90)
	require.NoError(t, err)
	return NewManager(cat, durations)
}

const user = "student@example.com"

func TestSelectResetsTabAndDuration(t *testing.T) {
	m := newManager(t)

	st, err := m.Select(user, "IAL/Mathematics/2022/May-June/P1")
	require.NoError(t, err)
	assert.Equal(t, TabQuestionPaper, st.Tab)
	assert.Equal(t, "IAL/Mathematics/2022/May-June/P1", st.Path)
	assert.Equal(t, 90, st.DurationMinutes)

	// Switching tab then selecting another paper resets the view.
	_, err = m.SetTab(user, TabMarkScheme)
	require.NoError(t, err)
	st, err = m.Select(user, "IAL/Mathematics/2022/May-June/P3")
	require.NoError(t, err)
	assert.Equal(t, TabQuestionPaper, st.Tab)
	assert.Equal(t, "P3", st.Paper.Name)
}

func TestSelectUnknownPathKeepsStateEmpty(t *testing.T) {
	m := newManager(t)

	_, err := m.Select(user, "IAL/Astronomy/2022/May-June/P1")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	st := m.Get(user)
	assert.Nil(t, st.Paper)
	assert.Empty(t, st.Path)
}

func TestSetTabRequiresSelection(t *testing.T) {
	m := newManager(t)

	_, err := m.SetTab(user, TabBooklet)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestParseTab(t *testing.T) {
	for _, valid := range []string{"question-paper", "mark-scheme", "solved-paper", "booklet"} {
		_, err := ParseTab(valid)
		assert.NoError(t, err, valid)
	}
	_, err := ParseTab("answers")
	assert.ErrorIs(t, err, ErrInvalidTab)
}

func TestExamModeLocksNavigation(t *testing.T) {
	m := newManager(t)

	_, err := m.StartExam(user)
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = m.Select(user, "IAL/Mathematics/2022/May-June/P1")
	require.NoError(t, err)

	st, err := m.StartExam(user)
	require.NoError(t, err)
	assert.True(t, st.ExamMode)
	require.NotNil(t, st.ExamStartedAt)

	_, err = m.Select(user, "IAL/Mathematics/2022/May-June/P3")
	assert.ErrorIs(t, err, ErrExamInProgress)
	_, err = m.StartExam(user)
	assert.ErrorIs(t, err, ErrExamInProgress)

	res, err := m.FinishExam(user, false)
	require.NoError(t, err)
	assert.Equal(t, "IAL/Mathematics/2022/May-June/P1", res.Path)
	assert.GreaterOrEqual(t, res.DurationMinutes, 1)
	assert.False(t, res.Abandoned)

	// Exam mode is off again; navigation unlocks.
	_, err = m.Select(user, "IAL/Mathematics/2022/May-June/P3")
	assert.NoError(t, err)
}

func TestFinishExamWithoutExam(t *testing.T) {
	m := newManager(t)

	_, err := m.FinishExam(user, true)
	assert.ErrorIs(t, err, ErrNoExam)
}

func TestAbandonedExamUnlocksWithoutRecording(t *testing.T) {
	m := newManager(t)

	_, err := m.Select(user, "IAL/Mathematics/2022/May-June/P1")
	require.NoError(t, err)
	_, err = m.StartExam(user)
	require.NoError(t, err)

	res, err := m.FinishExam(user, true)
	require.NoError(t, err)
	assert.True(t, res.Abandoned)
	assert.False(t, m.Get(user).ExamMode)
}

func TestStatesAreIsolatedPerUser(t *testing.T) {
	m := newManager(t)

	_, err := m.Select("a@example.com", "IAL/Mathematics/2022/May-June/P1")
	require.NoError(t, err)

	st := m.Get("b@example.com")
	assert.Nil(t, st.Paper)
	assert.NotEqual(t, m.Get("a@example.com").ID, st.ID)
}
