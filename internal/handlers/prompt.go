package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"prompthub/internal/db"
	"prompthub/internal/feed"
	"prompthub/internal/middleware"
	"prompthub/internal/models"
	"prompthub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const feedCacheKey = "feed:all"

type PromptHandler struct{}

func NewPromptHandler() *PromptHandler {
	return &PromptHandler{}
}

// PromptView decorates a prompt with the viewer's current vote, derived from
// the embedded ledger each time the page is built.
type PromptView struct {
	models.Prompt
	MyVote models.Direction
}

func viewsFor(prompts []models.Prompt, user *models.User) []PromptView {
	key := ""
	if user != nil {
		key = user.LedgerKey()
	}
	views := make([]PromptView, len(prompts))
	for i, p := range prompts {
		views[i] = PromptView{Prompt: p, MyVote: p.UserVote(key)}
	}
	return views
}

// loadFeed returns the full score-ordered snapshot, cached briefly so the
// title search filters in memory instead of hitting the store per keystroke.
func loadFeed() []models.Prompt {
	if cached := utils.GetCache().Get(feedCacheKey); cached != nil {
		if prompts, ok := cached.([]models.Prompt); ok {
			return prompts
		}
	}

	var prompts []models.Prompt
	db.DB.Order("score DESC, fecha_creacion DESC, id ASC").Find(&prompts)

	utils.GetCache().Set(feedCacheKey, prompts, 1*time.Minute)
	return prompts
}

func invalidateFeed() {
	utils.GetCache().Delete(feedCacheKey)
}

// List renders the shared feed, optionally narrowed by the title search. The
// search is a filter over the already-ordered snapshot, never a new query.
func (h *PromptHandler) List(c *gin.Context) {
	query := c.Query("q")

	prompts := feed.FilterTitle(loadFeed(), query)

	Render(c, http.StatusOK, "prompt/list.html", gin.H{
		"Title":   "Explora Prompts",
		"Prompts": viewsFor(prompts, middleware.CurrentUser(c)),
		"Query":   query,
	})
}

// MyPrompts lists the caller's own prompts, same order as the feed.
func (h *PromptHandler) MyPrompts(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var prompts []models.Prompt
	db.DB.Where("user_id = ?", user.ID).
		Order("score DESC, fecha_creacion DESC, id ASC").
		Find(&prompts)

	Render(c, http.StatusOK, "prompt/list.html", gin.H{
		"Title":   "Mis Prompts",
		"Prompts": viewsFor(prompts, user),
		"Mine":    true,
	})
}

func (h *PromptHandler) Detail(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var prompt models.Prompt
	if err := db.DB.First(&prompt, uint(id)).Error; err != nil {
		RenderError(c, http.StatusNotFound, "El prompt no existe.")
		return
	}

	user := middleware.CurrentUser(c)
	key := ""
	if user != nil {
		key = user.LedgerKey()
	}

	Render(c, http.StatusOK, "prompt/detail.html", gin.H{
		"Title":     prompt.Titulo,
		"Prompt":    prompt,
		"MyVote":    prompt.UserVote(key),
		"Contenido": utils.RenderMarkdown(prompt.Contenido),
	})
}

func (h *PromptHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "prompt/form.html", gin.H{
		"Title":  "Crear Prompt",
		"Action": "/submit",
	})
}

func (h *PromptHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	titulo := strings.TrimSpace(c.PostForm("titulo"))
	contenido := strings.TrimSpace(c.PostForm("contenido"))
	tagsString := c.PostForm("tags")

	if titulo == "" || contenido == "" {
		Render(c, http.StatusBadRequest, "prompt/form.html", gin.H{
			"Title":     "Crear Prompt",
			"Action":    "/submit",
			"Error":     "El título y el contenido son obligatorios.",
			"Titulo":    titulo,
			"Contenido": contenido,
			"TagsRaw":   tagsString,
		})
		return
	}

	prompt := models.Prompt{
		UserID:        user.ID,
		AutorNombre:   user.Username,
		Titulo:        titulo,
		Contenido:     contenido,
		Tags:          models.TagList(utils.ParseTags(tagsString)),
		VotosUsuarios: models.VoteLedger{},
	}

	if err := db.DB.Create(&prompt).Error; err != nil {
		logrus.WithError(err).Error("failed to create prompt")
		Render(c, http.StatusInternalServerError, "prompt/form.html", gin.H{
			"Title":     "Crear Prompt",
			"Action":    "/submit",
			"Error":     "No se pudo publicar el prompt.",
			"Titulo":    titulo,
			"Contenido": contenido,
			"TagsRaw":   tagsString,
		})
		return
	}

	invalidateFeed()
	c.Redirect(http.StatusFound, "/p/"+strconv.FormatUint(uint64(prompt.ID), 10))
}

func (h *PromptHandler) ShowEdit(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, _ := strconv.Atoi(c.Param("id"))

	var prompt models.Prompt
	if err := db.DB.First(&prompt, uint(id)).Error; err != nil {
		RenderError(c, http.StatusNotFound, "El prompt no existe.")
		return
	}
	if prompt.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "No tienes permiso para editar este prompt.")
		return
	}

	Render(c, http.StatusOK, "prompt/form.html", gin.H{
		"Title":     "Editar Prompt",
		"Action":    "/p/" + c.Param("id") + "/edit",
		"Titulo":    prompt.Titulo,
		"Contenido": prompt.Contenido,
		"TagsRaw":   utils.JoinTags(prompt.Tags),
	})
}

// Update rewrites titulo/contenido/tags only. Counters, ledger and score are
// owned by the vote engine and are never touched here; the two field groups
// can race without conflicting.
func (h *PromptHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, _ := strconv.Atoi(c.Param("id"))

	var prompt models.Prompt
	if err := db.DB.First(&prompt, uint(id)).Error; err != nil {
		RenderError(c, http.StatusNotFound, "El prompt no existe.")
		return
	}
	if prompt.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "No tienes permiso para editar este prompt.")
		return
	}

	titulo := strings.TrimSpace(c.PostForm("titulo"))
	contenido := strings.TrimSpace(c.PostForm("contenido"))
	tagsString := c.PostForm("tags")

	if titulo == "" || contenido == "" {
		Render(c, http.StatusBadRequest, "prompt/form.html", gin.H{
			"Title":     "Editar Prompt",
			"Action":    "/p/" + c.Param("id") + "/edit",
			"Error":     "El título y el contenido son obligatorios.",
			"Titulo":    titulo,
			"Contenido": contenido,
			"TagsRaw":   tagsString,
		})
		return
	}

	if err := db.DB.Model(&prompt).Updates(map[string]interface{}{
		"titulo":              titulo,
		"contenido":           contenido,
		"tags":                models.TagList(utils.ParseTags(tagsString)),
		"fecha_actualizacion": time.Now(),
	}).Error; err != nil {
		logrus.WithError(err).WithField("prompt", prompt.ID).Error("failed to update prompt")
		RenderError(c, http.StatusInternalServerError, "No se pudo guardar el prompt.")
		return
	}

	invalidateFeed()
	c.Redirect(http.StatusFound, "/p/"+c.Param("id"))
}

// Delete removes the prompt and its embedded ledger in one go. Fired from a
// script, so it answers with status codes rather than a page.
func (h *PromptHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id, _ := strconv.Atoi(c.Param("id"))

	var prompt models.Prompt
	if err := db.DB.First(&prompt, uint(id)).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	if prompt.UserID != user.ID {
		c.Status(http.StatusForbidden)
		return
	}

	// Hard delete; the ledger lives in the row, so the votes go with it.
	if err := db.DB.Unscoped().Delete(&prompt).Error; err != nil {
		logrus.WithError(err).WithField("prompt", prompt.ID).Error("failed to delete prompt")
		c.Status(http.StatusInternalServerError)
		return
	}

	invalidateFeed()

	redirect := c.GetHeader("HX-Current-URL")
	if strings.Contains(redirect, "/p/") {
		c.Header("HX-Redirect", "/")
	}
	c.Status(http.StatusOK)
}
