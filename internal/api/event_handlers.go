package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/alarm-missions/internal/api/replay"
	"github.com/gin-gonic/gin"
)

// handleEvents отдаёт недавние события: ?type=a,b&correlation_id=&since=RFC3339&limit=
func (rs *RestServer) handleEvents(c *gin.Context) {
	var f replay.Filter
	if types := c.Query("type"); types != "" {
		f.EventTypes = strings.Split(types, ",")
	}
	f.CorrelationID = c.Query("correlation_id")
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			fail(c, http.StatusBadRequest, "since должен быть в RFC3339")
			return
		}
		f.Since = t
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		fail(c, http.StatusBadRequest, "Неверный limit")
		return
	}
	f.Limit = limit

	events := rs.journal.Query(f)
	ok(c, http.StatusOK, "События", gin.H{"events": events, "total": len(events)})
}

func (rs *RestServer) handleEventStats(c *gin.Context) {
	ok(c, http.StatusOK, "Статистика событий", gin.H{
		"stats": rs.journal.Stats(),
		"types": rs.journal.EventTypes(),
	})
}

func (rs *RestServer) handleListWebhooks(c *gin.Context) {
	hooks := rs.webhooks.List()
	ok(c, http.StatusOK, "Список webhook'ов", gin.H{"webhooks": hooks, "total": len(hooks)})
}

func (rs *RestServer) handleCreateWebhook(c *gin.Context) {
	var w OutboundWebhook
	if err := c.ShouldBindJSON(&w); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат webhook'а: "+err.Error())
		return
	}
	created, err := rs.webhooks.Add(w)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ok(c, http.StatusCreated, "Webhook создан", created)
}

func webhookID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Неверный ID webhook'а")
		return 0, false
	}
	return id, true
}

func (rs *RestServer) handleGetWebhook(c *gin.Context) {
	id, valid := webhookID(c)
	if !valid {
		return
	}
	w, err := rs.webhooks.Get(id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Webhook найден", w)
}

func (rs *RestServer) handleDeleteWebhook(c *gin.Context) {
	id, valid := webhookID(c)
	if !valid {
		return
	}
	if err := rs.webhooks.Delete(id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Webhook удалён", nil)
}
