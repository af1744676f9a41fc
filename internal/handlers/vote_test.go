package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"prompthub/internal/db"
	"prompthub/internal/middleware"
	"prompthub/internal/models"
	"prompthub/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.User{}, &models.Prompt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	prev := db.DB
	db.DB = gdb
	t.Cleanup(func() { db.DB = prev })
}

// asUser injects a logged-in user the way LoadUser would.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.CheckUserKey, user)
		}
		c.Next()
	}
}

func newTestRouter(user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(user))

	voteHandler := NewVoteHandler(votes.NewEngine(db.DB))
	promptHandler := NewPromptHandler()
	r.POST("/vote/:id/:direction", voteHandler.Vote)
	r.DELETE("/p/:id", promptHandler.Delete)
	return r
}

func seedPrompt(t *testing.T, ownerID uint) *models.Prompt {
	t.Helper()
	p := models.Prompt{
		UserID:        ownerID,
		AutorNombre:   "ana",
		Titulo:        "Plantilla de informes",
		Contenido:     "Escribe un informe a partir de estas notas.",
		VotosUsuarios: models.VoteLedger{},
	}
	if err := db.DB.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	return &p
}

func TestVoteEndpointTogglesAndReturnsCounts(t *testing.T) {
	setupTestDB(t)
	voter := &models.User{ID: 2, Username: "luis", Email: "luis@example.com", Password: "x"}
	r := newTestRouter(voter)
	p := seedPrompt(t, 1)

	do := func(dir string) (int, votes.Result) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/vote/"+itoa(p.ID)+"/"+dir, nil)
		r.ServeHTTP(w, req)
		var res votes.Result
		if w.Code == http.StatusOK {
			if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
				t.Fatalf("bad json: %v", err)
			}
		}
		return w.Code, res
	}

	code, res := do("up")
	if code != http.StatusOK || res.Upvotes != 1 || res.Score != 1 || res.MyVote != models.DirUp {
		t.Fatalf("up: code=%d res=%+v", code, res)
	}

	code, res = do("down")
	if code != http.StatusOK || res.Upvotes != 0 || res.Downvotes != 1 || res.Score != -1 || res.MyVote != models.DirDown {
		t.Fatalf("switch: code=%d res=%+v", code, res)
	}

	code, res = do("down")
	if code != http.StatusOK || res.Upvotes != 0 || res.Downvotes != 0 || res.Score != 0 || res.MyVote != models.DirNone {
		t.Fatalf("retract: code=%d res=%+v", code, res)
	}

	if code, _ := do("sideways"); code != http.StatusBadRequest {
		t.Fatalf("invalid direction: code=%d", code)
	}
}

func TestVoteEndpointUnauthenticated(t *testing.T) {
	setupTestDB(t)
	r := newTestRouter(nil)
	p := seedPrompt(t, 1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/vote/"+itoa(p.ID)+"/up", nil)
	r.ServeHTTP(w, req)

	if w.Header().Get("HX-Redirect") != "/login" {
		t.Fatalf("expected login redirect, got headers %v", w.Header())
	}

	// No write happened.
	var stored models.Prompt
	if err := db.DB.First(&stored, p.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Upvotes != 0 || len(stored.VotosUsuarios) != 0 {
		t.Fatalf("unauthenticated vote mutated the prompt: %+v", stored)
	}
}

func TestVoteEndpointPromptGone(t *testing.T) {
	setupTestDB(t)
	voter := &models.User{ID: 2, Username: "luis", Email: "luis@example.com", Password: "x"}
	r := newTestRouter(voter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/vote/12345/up", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

// contendedCommitter stands in for an engine whose retry budget is always
// exhausted by concurrent writers.
type contendedCommitter struct{}

func (contendedCommitter) ApplyVote(ctx context.Context, promptID uint, ledgerKey string, dir models.Direction) (votes.Result, error) {
	return votes.Result{}, votes.ErrConflict
}

func TestVoteEndpointConflictMapsTo409(t *testing.T) {
	setupTestDB(t)
	voter := &models.User{ID: 2, Username: "luis", Email: "luis@example.com", Password: "x"}
	p := seedPrompt(t, 1)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(voter))
	r.POST("/vote/:id/:direction", NewVoteHandler(contendedCommitter{}).Vote)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/vote/"+itoa(p.ID)+"/up", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestDeleteByNonOwnerForbidden(t *testing.T) {
	setupTestDB(t)
	intruder := &models.User{ID: 2, Username: "luis", Email: "luis@example.com", Password: "x"}
	r := newTestRouter(intruder)
	p := seedPrompt(t, 1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/p/"+itoa(p.ID), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	// The prompt remains queryable, unchanged.
	var stored models.Prompt
	if err := db.DB.First(&stored, p.ID).Error; err != nil {
		t.Fatalf("prompt should still exist: %v", err)
	}
	if stored.Titulo != p.Titulo {
		t.Fatalf("prompt changed: %+v", stored)
	}
}

func TestDeleteByOwnerRemovesPromptAndLedger(t *testing.T) {
	setupTestDB(t)
	owner := &models.User{ID: 1, Username: "ana", Email: "ana@example.com", Password: "x"}
	r := newTestRouter(owner)
	p := seedPrompt(t, 1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/p/"+itoa(p.ID), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var n int64
	db.DB.Model(&models.Prompt{}).Where("id = ?", p.ID).Count(&n)
	if n != 0 {
		t.Fatal("prompt should be gone")
	}
}

func TestDeleteStoreFailureAnswers500(t *testing.T) {
	setupTestDB(t)
	owner := &models.User{ID: 1, Username: "ana", Email: "ana@example.com", Password: "x"}
	r := newTestRouter(owner)
	p := seedPrompt(t, 1)

	// Make every DELETE statement fail.
	err := db.DB.Callback().Delete().Before("gorm:delete").Register("fail_delete", func(tx *gorm.DB) {
		tx.AddError(errors.New("disk full"))
	})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/p/"+itoa(p.ID), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	// The prompt is still there.
	var stored models.Prompt
	if err := db.DB.First(&stored, p.ID).Error; err != nil {
		t.Fatalf("prompt should still exist: %v", err)
	}
}
