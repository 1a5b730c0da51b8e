package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/aulabot-go/internal/bot"
	"github.com/garyellow/aulabot-go/internal/buildinfo"
	"github.com/garyellow/aulabot-go/internal/config"
	apperrors "github.com/garyellow/aulabot-go/internal/errors"
)

// User-facing API messages.
const (
	msgAPIActive       = "AulaBot API activa. Usa /docs para ver la documentación."
	msgEmptyMessage    = "El mensaje no puede estar vacío"
	msgInternalError   = "Error interno del servidor"
	msgInvalidRequest  = "Solicitud inválida: se espera JSON con el campo 'mensaje'"
	msgTooManyRequests = "Demasiadas solicitudes. Inténtalo de nuevo en un momento."
)

const defaultUserID = "anonimo"

type chatRequest struct {
	UsuarioID string  `json:"usuario_id" binding:"omitempty,max=128"`
	Mensaje   *string `json:"mensaje" binding:"omitempty,max=4000"`
}

type chatResponse struct {
	Respuesta string `json:"respuesta"`
	Estado    string `json:"estado"`
}

func (a *Application) index(c *gin.Context) {
	if path := a.cfg.IndexFile; path != "" {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			c.File(path)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": msgAPIActive})
}

// chat answers POST /chat.
func (a *Application) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Mensaje == nil {
		a.metrics.RecordHTTPError("invalid_request", "chat")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msgInvalidRequest})
		return
	}
	reply, status := a.converse(c.Request.Context(), req.UsuarioID, *req.Mensaje)
	if status != http.StatusOK {
		c.JSON(status, gin.H{"detail": reply})
		return
	}
	c.JSON(http.StatusOK, chatResponse{Respuesta: reply, Estado: "ok"})
}

// chatLegacy answers GET /chat?mensaje=..., the query form older pages use.
func (a *Application) chatLegacy(c *gin.Context) {
	reply, status := a.converse(c.Request.Context(), c.Query("usuario_id"), c.Query("mensaje"))
	if status != http.StatusOK {
		c.JSON(status, gin.H{"detail": reply})
		return
	}
	c.JSON(http.StatusOK, gin.H{"respuesta": reply})
}

// converse runs one HTTP turn and maps failures to a status and a fixed
// message.
func (a *Application) converse(ctx context.Context, userID, text string) (string, int) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = defaultUserID
	}
	if strings.TrimSpace(text) == "" {
		a.metrics.RecordHTTPError("empty_message", "chat")
		return msgEmptyMessage, http.StatusBadRequest
	}
	if a.userLimiter != nil && !a.userLimiter.Allow(userID) {
		return msgTooManyRequests, http.StatusTooManyRequests
	}

	reply, err := a.reply(ctx, bot.ChannelHTTP, userID, text)
	switch {
	case err == nil:
		return reply, http.StatusOK
	case errors.Is(err, apperrors.ErrEmptyMessage):
		a.metrics.RecordHTTPError("empty_message", "chat")
		return msgEmptyMessage, http.StatusBadRequest
	default:
		a.logger.WithError(err).Error("Chat turn failed")
		a.metrics.RecordHTTPError("internal", "chat")
		return msgInternalError, http.StatusInternalServerError
	}
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	if a.comps.DB != nil {
		if err := a.comps.DB.Ping(ctx); err != nil {
			a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "database unavailable",
			})
			return
		}
	}

	counts := a.comps.Holder.Catalog().Counts()
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"records": gin.H{
			"majors":  counts.Majors,
			"courses": counts.Courses,
			"qa":      counts.QA,
		},
		"features": gin.H{
			"bm25_search": a.comps.Index.Count() > 0,
			"llm":         a.comps.Model.Enabled(),
			"line":        a.webhookHandler != nil,
		},
		"learned_backend": a.cfg.LearnedBackend,
		"version":         buildinfo.Release(),
	})
}
