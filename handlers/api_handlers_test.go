package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastprep-server/catalog"
	"pastprep-server/models"
	"pastprep-server/session"
	"pastprep-server/store"
)

const handlerFixture = `
IAL:
  Mathematics:
    "2022":
      May-June:
        - name: P1
          qp: https://example.com/p1-qp.pdf
          ms: https://example.com/p1-ms.pdf
    "2021":
      May-June:
        - name: P1
          qp: https://example.com/p1-2021-qp.pdf
  Chemistry:
    "2022":
      May-June:
        - name: Unit 1
          qp: https://example.com/c1-qp.pdf
`

const testEmail = "student@example.com"

// testIdentity stands in for the token middleware.
func testIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_email", testEmail)
		c.Set("user_name", "Student")
		c.Set("user_role", models.RoleUser)
		c.Next()
	}
}

func apiRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	cat, err := catalog.Parse([]byte(handlerFixture))
	require.NoError(t, err)
	durations, err := catalog.LoadDurations("testdata/none.yaml", 90)
	require.NoError(t, err)

	st := store.NewMemoryStore()
	sessions := session.NewManager(cat, durations)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(testIdentity())
	api.GET("/catalog", GetCatalog(cat, st))
	api.GET("/catalog/search", SearchCatalog(cat))
	api.GET("/papers/*path", GetPaper(cat))
	api.POST("/goals", AddGoal(cat, st))
	api.GET("/goals", ListGoals(st))
	api.PATCH("/goals/:id/completion", SetGoalCompletion(st))
	api.DELETE("/goals/:id", DeleteGoal(st))
	api.POST("/mocks", RecordMock(cat, st))
	api.POST("/mocks/:id/score", AttachMockScore(st))
	api.GET("/mocks", ListMocks(st))
	api.GET("/preferences", GetPreferences(st))
	api.PUT("/preferences", SetPreferences(st))
	api.GET("/session", GetSession(sessions))
	api.POST("/session/select", SelectPaper(sessions))
	api.POST("/session/exam/start", StartExam(sessions))
	api.POST("/session/exam/finish", FinishExam(sessions, st))
	return r, st
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAddGoalConflictOnDuplicatePath(t *testing.T) {
	r, _ := apiRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/goals", models.GoalRequest{Path: "IAL/Mathematics/2022/May-June/P1"})
	require.Equal(t, http.StatusCreated, w.Code)

	var goal models.Goal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &goal))
	assert.Equal(t, "Mathematics", goal.Subject)
	assert.Equal(t, "2022", goal.Year)
	assert.Equal(t, "IAL", goal.ExamBoard)

	// Same paper through a messy path is a duplicate.
	w = doJSON(t, r, http.MethodPost, "/api/v1/goals", models.GoalRequest{Path: "/IAL//Mathematics/2022/May-June/P1/"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddGoalUnknownPathIs404(t *testing.T) {
	r, _ := apiRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/goals", models.GoalRequest{Path: "IAL/Astronomy/2022/May-June/P1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMissingGoalIs404(t *testing.T) {
	r, _ := apiRouter(t)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/goals/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Full flow over HTTP: add goal, record mock, attach score 87; the goal
// comes back completed via mock with that score.
func TestMockScoreAutoCompletesGoal(t *testing.T) {
	r, _ := apiRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/goals", models.GoalRequest{Path: "IAL/Mathematics/2022/May-June/P1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/mocks", models.MockExamRequest{
		Path:            "IAL/Mathematics/2022/May-June/P1",
		DurationMinutes: 90,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ExamID string `json:"examId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ExamID)

	score := 87.0
	w = doJSON(t, r, http.MethodPost, "/api/v1/mocks/"+created.ExamID+"/score", models.MockScoreRequest{Score: &score})
	require.Equal(t, http.StatusOK, w.Code)
	var attached struct {
		GoalsCompleted int64 `json:"goalsCompleted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &attached))
	assert.Equal(t, int64(1), attached.GoalsCompleted)

	w = doJSON(t, r, http.MethodGet, "/api/v1/goals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var goals []models.Goal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &goals))
	require.Len(t, goals, 1)
	assert.True(t, goals[0].Completed)
	assert.True(t, goals[0].CompletedAsMock)
	require.NotNil(t, goals[0].MockScore)
	assert.Equal(t, 87.0, *goals[0].MockScore)
}

func TestSearchEndpointFiltersByYear(t *testing.T) {
	r, _ := apiRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/catalog/search?q=2022", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var matches []catalog.Match
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.Contains(t, m.Path, "2022")
	}
}

func TestCatalogFilteredByStoredPreferences(t *testing.T) {
	r, _ := apiRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/v1/preferences", models.PreferencesRequest{Subjects: []string{"ial-chemistry"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/catalog?filtered=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tree map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	require.Contains(t, tree, "IAL")
	assert.Contains(t, tree["IAL"], "Chemistry")
	assert.NotContains(t, tree["IAL"], "Mathematics")
}

func TestDeepLinkRestoresSelection(t *testing.T) {
	r, _ := apiRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/session?paper=IAL/Mathematics/2022/May-June/P1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var st session.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "IAL/Mathematics/2022/May-June/P1", st.Path)
	assert.Equal(t, session.TabQuestionPaper, st.Tab)

	// An unresolvable deep link leaves the selection empty.
	w = doJSON(t, r, http.MethodGet, "/api/v1/session?paper=IAL/Nope/2022", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "IAL/Mathematics/2022/May-June/P1", st.Path, "previous selection survives a bad deep link")
}

func TestFinishExamWithoutExamIsConflict(t *testing.T) {
	r, st := apiRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/session/exam/finish", models.FinishExamRequest{Abandoned: false})
	assert.Equal(t, http.StatusConflict, w.Code)

	mocks, err := st.ListMockExams(context.Background(), testEmail)
	require.NoError(t, err)
	assert.Empty(t, mocks)
}

func TestExamFlowOverHTTP(t *testing.T) {
	r, _ := apiRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/session/select", models.SelectRequest{Path: "IAL/Mathematics/2022/May-June/P1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/session/exam/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Navigation is locked during the exam.
	w = doJSON(t, r, http.MethodPost, "/api/v1/session/select", models.SelectRequest{Path: "IAL/Chemistry/2022/May-June/Unit 1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/session/exam/finish", models.FinishExamRequest{Abandoned: false})
	require.Equal(t, http.StatusCreated, w.Code)
	var finished struct {
		ExamID string `json:"examId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &finished))
	assert.NotEmpty(t, finished.ExamID)

	w = doJSON(t, r, http.MethodGet, "/api/v1/mocks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mocks []models.MockExam
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mocks))
	require.Len(t, mocks, 1)
	assert.Nil(t, mocks[0].Score, "score arrives in the later attach phase")
}
