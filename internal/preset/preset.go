package preset

import (
	"strings"

	"github.com/annel0/alarm-missions/internal/world"
)

// BundleSeparator разделяет пресеты в общем файле
const BundleSeparator = "---"

// WorldPreset - именованный мир. После загрузки не меняется.
type WorldPreset struct {
	Name  string      `json:"name"`
	World world.World `json:"world"`
	// Text - исходный текст пресета (имя и тело), нужен для импортированных миров.
	Text string `json:"text,omitempty"`
}

// ParsePreset разбирает одиночный пресет: первая строка - имя,
// остальные - тело мира. Пустой текст даёт false.
func ParsePreset(text string) (WorldPreset, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return WorldPreset{}, false
	}
	name, body, _ := strings.Cut(text, "\n")
	return WorldPreset{
		Name:  strings.TrimSpace(name),
		World: ParseWorld(body),
		Text:  text,
	}, true
}

// NameOf возвращает имя пресета (первую строку) без разбора мира
func NameOf(text string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(name)
}

// SplitBundle делит общий файл на тексты отдельных пресетов.
// Пустые сегменты отбрасываются.
func SplitBundle(text string) []string {
	var segments []string
	for _, segment := range strings.Split(text, BundleSeparator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

// ParseBundle разбирает все пресеты общего файла в порядке следования
func ParseBundle(text string) []WorldPreset {
	var presets []WorldPreset
	for _, segment := range SplitBundle(text) {
		if p, ok := ParsePreset(segment); ok {
			presets = append(presets, p)
		}
	}
	return presets
}
