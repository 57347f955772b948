package http

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evkarev/dailywish/internal/core/domain"
	"github.com/evkarev/dailywish/internal/core/services"
	"github.com/evkarev/dailywish/internal/core/workers"
)

const defaultJournalTail = 50

// AdminHandler exposes the operator's view: every record, the recent
// grant history and the store rollup. All routes behind the operator token.
type AdminHandler struct {
	svc     *services.WishService
	journal domain.GrantJournal
	digest  *workers.DigestWorker
}

func NewAdminHandler(svc *services.WishService, journal domain.GrantJournal, digest *workers.DigestWorker) *AdminHandler {
	return &AdminHandler{
		svc:     svc,
		journal: journal,
		digest:  digest,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	{
		admin.GET("/records", h.ListRecords)
		admin.GET("/journal", h.Journal)
		admin.GET("/digest", h.Digest)
	}
}

func (h *AdminHandler) ListRecords(c *gin.Context) {
	records, err := h.svc.ListRecords(c.Request.Context())
	if err != nil {
		log.Printf("admin handler: list records: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// JSON object keys must be strings.
	out := make(map[string]*domain.UserRecord, len(records))
	for id, record := range records {
		out[strconv.FormatInt(int64(id), 10)] = record
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(out),
		"records": out,
	})
}

func (h *AdminHandler) Journal(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}

	limit := defaultJournalTail
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	events, err := h.journal.Tail(c.Request.Context(), limit)
	if err != nil {
		log.Printf("admin handler: journal tail: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

func (h *AdminHandler) Digest(c *gin.Context) {
	if h.digest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "digest disabled"})
		return
	}

	summary, err := h.digest.Snapshot(c.Request.Context(), time.Now())
	if err != nil {
		log.Printf("admin handler: digest snapshot: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
