package main

import (
	"path/filepath"
	"strings"

	"prompthub/internal/config"
	"prompthub/internal/db"
	"prompthub/internal/middleware"
	"prompthub/internal/router"
	"prompthub/internal/services"
	"prompthub/internal/votes"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	// Initialize Database
	db.Init(cfg.DatabaseURL)

	// Vote engine: the only code path allowed to touch counters/ledger/score.
	engine := votes.NewEngine(db.DB)

	// Nightly ledger audit
	audit := services.NewLedgerAudit()
	if err := audit.Start(); err != nil {
		logrus.Fatalf("failed to start ledger audit: %v", err)
	}

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("prompthub_session", store))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	r.HTMLRender = loadTemplates("./web/templates")

	// Static Assets
	r.Static("/static", "./web/static")

	// Middleware
	r.Use(middleware.LoadUser())

	// Routes
	router.RegisterRoutes(r, engine)

	logrus.Infof("PromptHub server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.Fatal(err)
	}
}

// loadTemplates pairs every page under pages/ with the shared base layout.
// Template names keep their path relative to pages/ (e.g. "auth/login.html").
func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	base := filepath.Join(templatesDir, "layouts", "base.html")

	pages, err := filepath.Glob(filepath.Join(templatesDir, "pages", "*", "*.html"))
	if err != nil {
		panic(err)
	}
	toplevel, err := filepath.Glob(filepath.Join(templatesDir, "pages", "*.html"))
	if err != nil {
		panic(err)
	}
	pages = append(pages, toplevel...)

	prefix := filepath.Join(templatesDir, "pages") + string(filepath.Separator)
	for _, page := range pages {
		name := strings.TrimPrefix(page, prefix)
		name = filepath.ToSlash(name)
		r.AddFromFiles(name, base, page)
	}

	return r
}
