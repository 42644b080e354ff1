package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/m3rciful/diaglink/core/logger"
	"github.com/m3rciful/diaglink/tokens"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// TokenService is the slice of the token service the HTTP surface uses.
type TokenService interface {
	Lookup(ctx context.Context, token string) (tokens.LinkToken, error)
	Complete(ctx context.Context, token, sessionID, clientName string) (tokens.CompleteOutcome, error)
}

// UpdateSink consumes decoded Telegram updates, normally the assembled bot.
type UpdateSink interface {
	Feed(u tele.Update)
}

type handlers struct {
	svc TokenService
	bot UpdateSink
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handlers) getToken(c *gin.Context) {
	token := c.Param("token")

	row, err := h.svc.Lookup(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "token_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server_error"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// webhook acknowledges every well-formed update with {ok:true}. Handler
// errors are logged inside the bot's middleware chain and never propagated:
// a non-200 would make Telegram redeliver the update.
func (h *handlers) webhook(c *gin.Context) {
	var upd tele.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		logger.Warn(c.Request.Context(), "http", "webhook.decode_failed",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "webhook_error"})
		return
	}

	// A message without a chat has no one to answer; acknowledge and drop
	// so Telegram does not redeliver it.
	if upd.Message != nil && upd.Message.Chat == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	h.bot.Feed(upd)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type completeRequest struct {
	Token      string `json:"token" binding:"required"`
	SessionID  string `json:"session_id" binding:"required"`
	ClientName string `json:"client_name"`
}

func (h *handlers) complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid_request"})
		return
	}

	outcome, err := h.svc.Complete(c.Request.Context(), req.Token, req.SessionID, req.ClientName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "server_error"})
		return
	}
	if outcome != tokens.OutcomeOK {
		c.JSON(http.StatusOK, gin.H{"ok": false, "err": string(outcome)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
