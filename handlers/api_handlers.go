package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pastprep-server/catalog"
	"pastprep-server/models"
	"pastprep-server/session"
	"pastprep-server/store"
)

// writeStoreError maps store failures onto HTTP statuses. Nothing is
// retried: a failed write is surfaced once and the user re-triggers it.
func writeStoreError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, store.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Paper is already in your goals"})
	default:
		log.Printf("Store error during %s: %v", action, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not reach the database, please try again"})
	}
}

// Login upserts the user profile from the decoded identity token.
// POST /api/v1/auth/login
func Login(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := st.UpsertUser(c.Request.Context(), models.User{
			Email:   c.GetString("user_email"),
			Name:    c.GetString("user_name"),
			Picture: c.GetString("user_picture"),
			Role:    c.GetString("user_role"),
		})
		if err != nil {
			writeStoreError(c, err, "login upsert")
			return
		}
		c.JSON(http.StatusOK, models.LoginResponse{
			Email:   user.Email,
			Name:    user.Name,
			Picture: user.Picture,
			Role:    user.Role,
		})
	}
}

// GetCatalog returns the paper tree, optionally pruned by the user's
// stored subject preferences. Year keys are re-sorted descending at this
// render step only; the underlying catalog is never reordered.
// GET /api/v1/catalog?filtered=1
func GetCatalog(cat *catalog.Catalog, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		root := cat.Root
		if c.Query("filtered") == "1" {
			prefs, err := st.GetSubjectPreferences(c.Request.Context(), c.GetString("user_email"))
			if err != nil {
				writeStoreError(c, err, "loading subject preferences")
				return
			}
			root = cat.FilterBySubjects(prefs)
		}
		c.JSON(http.StatusOK, catalog.RenderView(root))
	}
}

// SearchCatalog runs the free-text search.
// GET /api/v1/catalog/search?q=
func SearchCatalog(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		matches := cat.Search(c.Query("q"))
		if matches == nil {
			matches = []catalog.Match{}
		}
		c.JSON(http.StatusOK, matches)
	}
}

// GetPaper resolves a path identifier to its descriptor.
// GET /api/v1/papers/*path
func GetPaper(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Param("path")
		loc, err := cat.DecodePath(path)
		if err != nil {
			log.Printf("Path did not resolve in catalog: %q", path)
			c.JSON(http.StatusNotFound, gin.H{"error": "Paper not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"paper":       loc.Paper,
			"path":        catalog.EncodePath(loc.Breadcrumbs),
			"breadcrumbs": loc.Breadcrumbs,
		})
	}
}

// AddGoal adds a paper to the user's goal list. Duplicate paths (after
// normalization) are a conflict, surfaced as a user-facing message.
// POST /api/v1/goals
func AddGoal(cat *catalog.Catalog, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GoalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		loc, err := cat.DecodePath(req.Path)
		if err != nil {
			log.Printf("Path did not resolve in catalog: %q", req.Path)
			c.JSON(http.StatusNotFound, gin.H{"error": "Paper not found"})
			return
		}
		meta := loc.Meta()
		goal, err := st.AddGoal(c.Request.Context(), models.Goal{
			UserEmail:  c.GetString("user_email"),
			Path:       catalog.EncodePath(loc.Breadcrumbs),
			Name:       loc.Paper.Name,
			Subject:    meta.Subject,
			Year:       meta.Year,
			Session:    meta.Session,
			ExamBoard:  meta.ExamBoard,
			QP:         loc.Paper.QP,
			MS:         loc.Paper.MS,
			SP:         loc.Paper.SP,
			TargetDate: req.TargetDate,
		})
		if err != nil {
			writeStoreError(c, err, "adding goal")
			return
		}
		c.JSON(http.StatusCreated, goal)
	}
}

// ListGoals returns the user's goals, most recently added first.
// GET /api/v1/goals
func ListGoals(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		goals, err := st.ListGoals(c.Request.Context(), c.GetString("user_email"))
		if err != nil {
			writeStoreError(c, err, "listing goals")
			return
		}
		if goals == nil {
			goals = []models.Goal{}
		}
		c.JSON(http.StatusOK, goals)
	}
}

// SetGoalCompletion toggles a goal's completed flag.
// PATCH /api/v1/goals/:id/completion
func SetGoalCompletion(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GoalCompletionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := st.SetGoalCompletion(c.Request.Context(), c.GetString("user_email"), c.Param("id"), *req.Completed)
		if err != nil {
			writeStoreError(c, err, "setting goal completion")
			return
		}
		c.JSON(http.StatusOK, gin.H{"completed": *req.Completed})
	}
}

// DeleteGoal removes a goal from the user's list.
// DELETE /api/v1/goals/:id
func DeleteGoal(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := st.DeleteGoal(c.Request.Context(), c.GetString("user_email"), c.Param("id"))
		if err != nil {
			writeStoreError(c, err, "deleting goal")
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// RecordMock stores a completed timed session. When the caller already
// knows the score it is stored immediately and matching goals are
// auto-completed; otherwise the score arrives via AttachMockScore.
// POST /api/v1/mocks
func RecordMock(cat *catalog.Catalog, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.MockExamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		loc, err := cat.DecodePath(req.Path)
		if err != nil {
			log.Printf("Path did not resolve in catalog: %q", req.Path)
			c.JSON(http.StatusNotFound, gin.H{"error": "Paper not found"})
			return
		}
		meta := loc.Meta()
		userEmail := c.GetString("user_email")

		examID, err := st.RecordMockExam(c.Request.Context(), models.MockExam{
			UserEmail:       userEmail,
			RawPath:         catalog.EncodePath(loc.Breadcrumbs),
			PathParts:       loc.Breadcrumbs,
			Subject:         meta.Subject,
			Year:            meta.Year,
			Session:         meta.Session,
			ExamBoard:       meta.ExamBoard,
			PaperCode:       meta.PaperCode,
			DurationMinutes: req.DurationMinutes,
			Score:           req.Score,
		})
		if err != nil {
			writeStoreError(c, err, "recording mock exam")
			return
		}

		var completed int64
		if req.Score != nil {
			completed, err = st.AutoCompleteOnMock(c.Request.Context(), userEmail, req.Path, *req.Score)
			if err != nil {
				writeStoreError(c, err, "auto-completing goals")
				return
			}
		}
		c.JSON(http.StatusCreated, gin.H{"examId": examID, "goalsCompleted": completed})
	}
}

// AttachMockScore attaches a score to a recorded mock and auto-completes
// every goal for the same normalized path. Idempotent per score value.
// POST /api/v1/mocks/:id/score
func AttachMockScore(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.MockScoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		userEmail := c.GetString("user_email")
		examID := c.Param("id")

		exam, err := st.GetMockExam(c.Request.Context(), examID)
		if err != nil {
			writeStoreError(c, err, "fetching mock exam")
			return
		}
		if exam.UserEmail != userEmail {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		if err := st.AttachMockScore(c.Request.Context(), examID, *req.Score); err != nil {
			writeStoreError(c, err, "attaching mock score")
			return
		}
		completed, err := st.AutoCompleteOnMock(c.Request.Context(), userEmail, exam.RawPath, *req.Score)
		if err != nil {
			writeStoreError(c, err, "auto-completing goals")
			return
		}
		c.JSON(http.StatusOK, gin.H{"examId": examID, "goalsCompleted": completed})
	}
}

// ListMocks returns the user's completed mock exams.
// GET /api/v1/mocks
func ListMocks(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		exams, err := st.ListMockExams(c.Request.Context(), c.GetString("user_email"))
		if err != nil {
			writeStoreError(c, err, "listing mock exams")
			return
		}
		if exams == nil {
			exams = []models.MockExam{}
		}
		c.JSON(http.StatusOK, exams)
	}
}

// GetPreferences returns the user's subject preference identifiers.
// GET /api/v1/preferences
func GetPreferences(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		prefs, err := st.GetSubjectPreferences(c.Request.Context(), c.GetString("user_email"))
		if err != nil {
			writeStoreError(c, err, "loading subject preferences")
			return
		}
		if prefs == nil {
			prefs = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"subjects": prefs})
	}
}

// SetPreferences replaces the user's subject preference list.
// PUT /api/v1/preferences
func SetPreferences(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PreferencesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := st.SetSubjectPreferences(c.Request.Context(), c.GetString("user_email"), req.Subjects); err != nil {
			writeStoreError(c, err, "saving subject preferences")
			return
		}
		c.JSON(http.StatusOK, gin.H{"subjects": req.Subjects})
	}
}

// GetSession returns the user's selection state. A ?paper= deep link is
// resolved through the path codec first; a path that does not resolve is
// logged and the selection stays empty.
// GET /api/v1/session?paper=
func GetSession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userEmail := c.GetString("user_email")
		if paper := c.Query("paper"); paper != "" {
			if _, err := mgr.Select(userEmail, paper); err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					log.Printf("Deep link did not resolve in catalog: %q", paper)
				}
			}
		}
		st := mgr.Get(userEmail)
		c.JSON(http.StatusOK, st)
	}
}

// SelectPaper makes a paper the current selection, resetting the tab and
// recomputing the timer duration. Locked while exam mode is active.
// POST /api/v1/session/select
func SelectPaper(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SelectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		st, err := mgr.Select(c.GetString("user_email"), req.Path)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			log.Printf("Path did not resolve in catalog: %q", req.Path)
			c.JSON(http.StatusNotFound, gin.H{"error": "Paper not found"})
		case errors.Is(err, session.ErrExamInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "Finish or abandon the exam before navigating"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not select paper"})
		default:
			c.JSON(http.StatusOK, st)
		}
	}
}

// SetTab switches the active view tab.
// POST /api/v1/session/tab
func SetTab(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TabRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tab, err := session.ParseTab(req.Tab)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tab"})
			return
		}
		st, err := mgr.SetTab(c.GetString("user_email"), tab)
		if errors.Is(err, session.ErrNoSelection) {
			c.JSON(http.StatusConflict, gin.H{"error": "No paper selected"})
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// StartExam enters exam mode on the current selection, locking navigation
// until the timer is completed or abandoned.
// POST /api/v1/session/exam/start
func StartExam(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := mgr.StartExam(c.GetString("user_email"))
		switch {
		case errors.Is(err, session.ErrNoSelection):
			c.JSON(http.StatusConflict, gin.H{"error": "No paper selected"})
		case errors.Is(err, session.ErrExamInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "An exam is already in progress"})
		default:
			c.JSON(http.StatusOK, st)
		}
	}
}

// FinishExam exits exam mode. A completed timer creates the mock record
// without a score; the score is attached later via AttachMockScore.
// Abandoned sessions are not recorded.
// POST /api/v1/session/exam/finish
func FinishExam(mgr *session.Manager, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FinishExamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		userEmail := c.GetString("user_email")
		res, err := mgr.FinishExam(userEmail, req.Abandoned)
		if err != nil {
			if errors.Is(err, session.ErrNoExam) {
				c.JSON(http.StatusConflict, gin.H{"error": "No exam in progress"})
				return
			}
			log.Printf("Error finishing exam for %s: %v", userEmail, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not finish the exam"})
			return
		}
		if res.Abandoned {
			c.JSON(http.StatusOK, gin.H{"abandoned": true})
			return
		}
		examID, err := st.RecordMockExam(c.Request.Context(), models.MockExam{
			UserEmail:       userEmail,
			RawPath:         res.Path,
			PathParts:       splitPath(res.Path),
			Subject:         res.Meta.Subject,
			Year:            res.Meta.Year,
			Session:         res.Meta.Session,
			ExamBoard:       res.Meta.ExamBoard,
			PaperCode:       res.Meta.PaperCode,
			DurationMinutes: res.DurationMinutes,
		})
		if err != nil {
			writeStoreError(c, err, "recording mock exam")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"examId": examID, "durationMinutes": res.DurationMinutes})
	}
}

func splitPath(path string) []string {
	norm := catalog.NormalizePath(path)
	if norm == "" {
		return nil
	}
	return strings.Split(norm, catalog.Separator)
}
