package api

import (
	"net/http"

	"github.com/annel0/alarm-missions/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionKey = "session"
	alarmIDKey = "alarm_id"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// sessionMiddleware находит сессию по :id и кладёт её в контекст
func (rs *RestServer) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Неверный ID сессии")
			return
		}
		s, err := rs.sessions.Get(id)
		if err != nil {
			failErr(c, err)
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func alarmIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "Неверный ID будильника")
			return
		}
		c.Set(alarmIDKey, id)
		c.Next()
	}
}

func alarmID(c *gin.Context) uuid.UUID {
	return c.MustGet(alarmIDKey).(uuid.UUID)
}
