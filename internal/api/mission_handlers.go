package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/annel0/alarm-missions/internal/mission"
	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
	"github.com/gin-gonic/gin"
)

// maxPhotoSize ограничивает тело POST /photo
const maxPhotoSize = 8 << 20

// CreateMissionRequest - запуск миссии; context по умолчанию preview
type CreateMissionRequest struct {
	Mission mission.Mission `json:"mission"`
	Context mission.Context `json:"context"`
}

// BlockRequest - координата блока; пустой kind => блок выбранного предмета
type BlockRequest struct {
	Row        int             `json:"row"`
	Column     int             `json:"column"`
	Levitation int             `json:"levitation"`
	Kind       block.BlockKind `json:"kind,omitempty"`
}

func (r BlockRequest) coordinate() world.Coordinate {
	return world.Coordinate{Row: r.Row, Column: r.Column, Levitation: r.Levitation}
}

func (rs *RestServer) handleMissionTypes(c *gin.Context) {
	type entry struct {
		Type     mission.Type     `json:"type"`
		Metadata mission.Metadata `json:"metadata"`
		Defaults mission.Content  `json:"defaults"`
	}
	out := make([]entry, 0, len(mission.AllTypes()))
	for _, t := range mission.AllTypes() {
		defaults, _ := mission.DefaultContent(t)
		out = append(out, entry{Type: t, Metadata: t.Metadata(), Defaults: defaults})
	}
	ok(c, http.StatusOK, "Виды миссий", out)
}

func (rs *RestServer) handleCreateMission(c *gin.Context) {
	var req CreateMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат миссии: "+err.Error())
		return
	}
	if req.Mission.Content == nil {
		fail(c, http.StatusBadRequest, "Не указана миссия")
		return
	}
	switch req.Context {
	case "":
		req.Context = mission.ContextPreview
	case mission.ContextPreview, mission.ContextAlarm:
	default:
		fail(c, http.StatusBadRequest, "context должен быть preview или alarm")
		return
	}
	if reason := mission.InvalidReason(req.Mission.Content); reason != "" {
		rs.logger.Debug("Миссия %s создаётся с неполными настройками: %s", req.Mission.Type(), reason)
	}

	s, err := rs.sessions.Create(c.Request.Context(), req.Mission, req.Context)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, "Миссия запущена", s.View())
}

func (rs *RestServer) handleListMissions(c *gin.Context) {
	sessions := rs.sessions.List()
	views := make([]interface{}, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, s.View())
	}
	ok(c, http.StatusOK, "Активные миссии", views)
}

func (rs *RestServer) handleGetMission(c *gin.Context) {
	ok(c, http.StatusOK, "Миссия", currentSession(c).View())
}

func (rs *RestServer) handleDeleteMission(c *gin.Context) {
	if err := rs.sessions.Delete(currentSession(c).ID); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Миссия закрыта", nil)
}

func (rs *RestServer) handleInteract(c *gin.Context) {
	s := currentSession(c)
	s.Interact()
	ok(c, http.StatusOK, "Действие учтено", s.View())
}

func (rs *RestServer) handleRetry(c *gin.Context) {
	s := currentSession(c)
	if err := s.Retry(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Миссия перезапущена", s.View())
}

func (rs *RestServer) handleFinish(c *gin.Context) {
	s := currentSession(c)
	if err := s.Finish(); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Миссия завершена вручную", s.View())
}

// handleShake принимает отсчёт акселерометра; пустое тело - ручное встряхивание
func (rs *RestServer) handleShake(c *gin.Context) {
	var sample *mission.Acceleration
	if c.Request.ContentLength > 0 {
		var a mission.Acceleration
		if err := c.ShouldBindJSON(&a); err != nil {
			fail(c, http.StatusBadRequest, "Неверный отсчёт акселерометра")
			return
		}
		sample = &a
	}
	s := currentSession(c)
	counted, err := s.Shake(sample)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Отсчёт принят", gin.H{"shake": counted, "session": s.View()})
}

func (rs *RestServer) handleSensorError(c *gin.Context) {
	var req struct {
		Error string `json:"error"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Error == "" {
		req.Error = "accelerometer unavailable"
	}
	le, err := currentSession(c).SensorFailed(errors.New(req.Error))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, le.Message, le)
}

func (rs *RestServer) handleScan(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	res, err := currentSession(c).Scan(req.Code)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Код отсканирован", res)
}

func (rs *RestServer) handleConfirmMismatch(c *gin.Context) {
	s := currentSession(c)
	if err := s.ConfirmMismatch(); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Миссия завершена", s.View())
}

func (rs *RestServer) handleDismissMismatch(c *gin.Context) {
	s := currentSession(c)
	if err := s.DismissMismatch(); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Сканируйте снова", s.View())
}

func (rs *RestServer) handlePlaceBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверная координата")
		return
	}
	if req.Kind != "" && !block.IsValidKind(req.Kind) {
		fail(c, http.StatusBadRequest, "Неизвестный блок: "+string(req.Kind))
		return
	}
	s := currentSession(c)
	if err := s.PlaceBlock(c.Request.Context(), req.coordinate(), req.Kind); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Блок поставлен", s.View())
}

func (rs *RestServer) handleRemoveBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверная координата")
		return
	}
	s := currentSession(c)
	if err := s.RemoveBlock(c.Request.Context(), req.coordinate()); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Блок убран", s.View())
}

func (rs *RestServer) handleSelectItem(c *gin.Context) {
	var req struct {
		Item block.Item `json:"item" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	s := currentSession(c)
	selected, err := s.SelectItem(req.Item)
	if err != nil {
		failErr(c, err)
		return
	}
	if !selected {
		fail(c, http.StatusBadRequest, "Предмета нет в хотбаре: "+string(req.Item))
		return
	}
	ok(c, http.StatusOK, "Предмет выбран", s.View())
}

// handleSubmitPhoto принимает снимок сырым телом запроса
func (rs *RestServer) handleSubmitPhoto(c *gin.Context) {
	image, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPhotoSize))
	if err != nil || len(image) == 0 {
		fail(c, http.StatusBadRequest, "Пустой снимок")
		return
	}
	res, err := currentSession(c).SubmitPhoto(c.Request.Context(), image)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Снимок сравнён", res)
}
