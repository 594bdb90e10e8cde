package api

import (
	"net/http"
	"strings"

	"github.com/annel0/alarm-missions/internal/preset"
	"github.com/annel0/alarm-missions/internal/world"
	"github.com/gin-gonic/gin"
)

// PresetSummary - пресет в списке
type PresetSummary struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Blocks int    `json:"blocks"`
}

func summarize(p preset.WorldPreset) PresetSummary {
	return PresetSummary{Name: p.Name, Width: p.World.Width, Height: p.World.Height, Blocks: p.World.Len()}
}

// PresetDetails - пресет с текстом и разобранным миром
type PresetDetails struct {
	Name          string      `json:"name"`
	Text          string      `json:"text"`
	World         world.World `json:"world"`
	UnknownTokens []string    `json:"unknown_tokens,omitempty"`
}

func (rs *RestServer) handleListPresets(c *gin.Context) {
	all := rs.presets.All()
	out := make([]PresetSummary, 0, len(all))
	for _, p := range all {
		out = append(out, summarize(p))
	}
	ok(c, http.StatusOK, "Список пресетов", out)
}

func (rs *RestServer) handleGetPreset(c *gin.Context) {
	p, err := rs.presets.Get(c.Param("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Пресет найден", PresetDetails{
		Name:  p.Name,
		Text:  preset.FormatWorld(p.World),
		World: p.World,
	})
}

// ParseRequest - текст мира для разбора. С WithName первая строка - имя.
type ParseRequest struct {
	Text     string `json:"text"`
	WithName bool   `json:"with_name"`
}

func (rs *RestServer) handleParsePreset(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	details := PresetDetails{Text: req.Text}
	body := req.Text
	if req.WithName {
		p, parsed := preset.ParsePreset(req.Text)
		if !parsed {
			fail(c, http.StatusBadRequest, "Пустой текст мира")
			return
		}
		details.Name, details.World = p.Name, p.World
		_, body, _ = strings.Cut(p.Text, "\n")
	} else {
		details.World = preset.ParseWorld(req.Text)
	}
	details.UnknownTokens = preset.UnknownTokens(body)
	ok(c, http.StatusOK, "Мир разобран", details)
}
