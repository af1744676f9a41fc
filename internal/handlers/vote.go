package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"prompthub/internal/middleware"
	"prompthub/internal/models"
	"prompthub/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type VoteHandler struct {
	engine votes.Committer
}

func NewVoteHandler(engine votes.Committer) *VoteHandler {
	return &VoteHandler{engine: engine}
}

// Vote toggles the caller's vote on a prompt and answers with the settled
// counters as JSON. The page script applies its optimistic state first and
// reconciles against (or rolls back on) this response.
func (h *VoteHandler) Vote(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		// Not logged in: no store access, the script redirects.
		HtmxRedirect(c, "/login")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt inválido"})
		return
	}
	dir := models.Direction(c.Param("direction"))

	result, err := h.engine.ApplyVote(c.Request.Context(), uint(id), user.LedgerKey(), dir)
	if err != nil {
		switch {
		case errors.Is(err, votes.ErrInvalidDirection):
			c.JSON(http.StatusBadRequest, gin.H{"error": "dirección inválida"})
		case errors.Is(err, votes.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "el prompt ya no existe"})
		case errors.Is(err, votes.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "demasiados votos a la vez, inténtalo de nuevo"})
		default:
			logrus.WithError(err).WithField("prompt", id).Error("vote failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo registrar el voto"})
		}
		return
	}

	invalidateFeed()
	c.JSON(http.StatusOK, result)
}
