package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evkarev/dailywish/internal/core/domain"
	"github.com/evkarev/dailywish/internal/core/services"
)

// userErrorReply is the only text an end user sees on an internal
// failure; the real error goes to the log for the operator.
const userErrorReply = "Что-то пошло не так, попробуй ещё раз чуть позже 🙏"

type WishHandler struct {
	svc *services.WishService
}

func NewWishHandler(svc *services.WishService) *WishHandler {
	return &WishHandler{
		svc: svc,
	}
}

type grantRequest struct {
	UserID int64 `json:"user_id" binding:"required"`

	// At is the transport-supplied event timestamp (RFC3339). Empty means
	// the server clock.
	At string `json:"at"`
}

type grantResponse struct {
	Granted  bool   `json:"granted"`
	Reply    string `json:"reply"`
	Wish     string `json:"wish"`
	Streak   int    `json:"streak"`
	Total    int    `json:"total"`
	RetryInS int    `json:"retry_in_s,omitempty"`
}

func (h *WishHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/wish", h.Grant)
	router.GET("/users/:id", h.Stats)
	router.GET("/greeting", h.Greeting)
}

func (h *WishHandler) Grant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var at time.Time
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid at format, use RFC3339"})
			return
		}
		at = parsed
	}

	decision, err := h.svc.Grant(c.Request.Context(), services.GrantInput{
		UserID: domain.UserID(req.UserID),
		At:     at,
	})
	if err != nil {
		h.fail(c, req.UserID, err)
		return
	}

	resp := grantResponse{
		Granted: decision.Granted,
		Reply:   services.RenderDecision(decision),
		Wish:    decision.Wish,
		Streak:  decision.Streak,
		Total:   decision.Total,
	}
	if !decision.Granted {
		resp.RetryInS = int(decision.Remaining.Seconds())
	}

	c.JSON(http.StatusOK, resp)
}

func (h *WishHandler) Stats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), domain.UserID(id), time.Time{})
	if err != nil {
		h.fail(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       id,
		"streak":        stats.Record.Streak,
		"total":         stats.Record.TotalGranted,
		"last_wish":     stats.Record.LastGrantWish,
		"claimed_today": stats.ClaimedToday,
		"until_reset":   services.RenderRemaining(stats.UntilReset),
	})
}

func (h *WishHandler) Greeting(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reply": services.RenderGreeting()})
}

// fail maps store failures onto statuses: a broken single record is the
// caller's problem (422, only that user is affected), everything else is
// a 500. The reply stays generic either way.
func (h *WishHandler) fail(c *gin.Context, userID int64, err error) {
	log.Printf("wish handler: user %d: %v", userID, err)

	status := http.StatusInternalServerError
	kind := "internal error"
	switch {
	case errors.Is(err, domain.ErrRecordCorrupt):
		status = http.StatusUnprocessableEntity
		kind = "record corrupt"
	case errors.Is(err, domain.ErrStoreCorrupt):
		kind = "store corrupt"
	}

	c.JSON(status, gin.H{"error": kind, "reply": userErrorReply})
}
