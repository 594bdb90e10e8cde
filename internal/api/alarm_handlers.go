package api

import (
	"net/http"

	"github.com/annel0/alarm-missions/internal/alarm"
	"github.com/gin-gonic/gin"
)

func (rs *RestServer) handleRingAlarm(c *gin.Context) {
	var a alarm.Alarm
	if err := c.ShouldBindJSON(&a); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат будильника: "+err.Error())
		return
	}
	for _, m := range a.Missions {
		if m.Content == nil {
			fail(c, http.StatusBadRequest, "Миссия без настроек")
			return
		}
	}
	ok(c, http.StatusCreated, "Будильник звонит", rs.sessions.Ring(c.Request.Context(), a))
}

func (rs *RestServer) handleGetAlarm(c *gin.Context) {
	v, err := rs.sessions.Alarm(alarmID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Будильник", v)
}

func (rs *RestServer) handleStartAlarm(c *gin.Context) {
	v, err := rs.sessions.StartAlarm(c.Request.Context(), alarmID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v.ActionLabel, v)
}

func (rs *RestServer) handleAdvanceAlarm(c *gin.Context) {
	v, err := rs.sessions.AdvanceAlarm(c.Request.Context(), alarmID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v.ActionLabel, v)
}

func (rs *RestServer) handleBackAlarm(c *gin.Context) {
	v, err := rs.sessions.BackAlarm(c.Request.Context(), alarmID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v.ActionLabel, v)
}

func (rs *RestServer) handleDeleteAlarm(c *gin.Context) {
	if err := rs.sessions.DeleteAlarm(alarmID(c)); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Будильник выключен", nil)
}
