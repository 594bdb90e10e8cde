package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ImportCodeRequest - импорт мира по коду
type ImportCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ImportTextRequest - импорт мира вставленным текстом
type ImportTextRequest struct {
	Text string `json:"text" binding:"required"`
}

func (rs *RestServer) handleListImports(c *gin.Context) {
	worlds, err := rs.importer.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	out := make([]PresetSummary, 0, len(worlds))
	for _, p := range worlds {
		out = append(out, summarize(p))
	}
	ok(c, http.StatusOK, "Импортированные миры", out)
}

func (rs *RestServer) handleAvailability(c *gin.Context) {
	ok(c, http.StatusOK, "Состояние сервера сборок", rs.importer.Availability(c.Request.Context()))
}

func (rs *RestServer) handleImportCode(c *gin.Context) {
	var req ImportCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	p, err := rs.importer.ImportFromCode(c.Request.Context(), req.Code)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, "Мир импортирован", summarize(p))
}

func (rs *RestServer) handleImportText(c *gin.Context) {
	var req ImportTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	p, err := rs.importer.ImportFromText(c.Request.Context(), req.Text)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, "Мир импортирован", summarize(p))
}

func (rs *RestServer) handleDeleteImport(c *gin.Context) {
	if err := rs.importer.Delete(c.Request.Context(), c.Param("name")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Мир удалён", nil)
}
