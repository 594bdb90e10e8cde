// Package preset разбирает текстовый формат мира и хранит набор
// заранее подготовленных миров.
package preset

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\v\f]+`)
	blankLines      = regexp.MustCompile(`\n{2,}`)
)

const layerSeparator = "\n\n"

// Tokens разбивает текст мира на заголовок и слои в порядке текста.
// Пробелы и пустые строки нормализуются.
func Tokens(text string) (header string, layers []string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, layerSeparator)

	components := strings.Split(text, layerSeparator)
	return strings.TrimSpace(components[0]), components[1:]
}

// parseHeader читает "<W>x<H>". Первая часть - ширина, последняя - высота;
// нечисловые части оставляют значение по умолчанию 1.
func parseHeader(header string) (width, height int) {
	width, height = 1, 1
	parts := strings.Split(header, "x")
	if w, err := strconv.Atoi(parts[0]); err == nil {
		width = w
	}
	if h, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
		height = h
	}
	return width, height
}

// ParseBlocks разбирает текст мира в несортированный список блоков.
// Последний слой текста - земля (levitation 0), предыдущие ложатся выше.
// Неизвестные токены пропускаются молча.
func ParseBlocks(text string) (width, height int, blocks []world.Block) {
	header, layers := Tokens(text)
	width, height = parseHeader(header)

	for levitation := 0; levitation < len(layers); levitation++ {
		layer := layers[len(layers)-1-levitation]
		for row, line := range strings.Split(layer, "\n") {
			line = strings.TrimSpace(line)
			for column, token := range strings.Split(line, " ") {
				kind, ok := block.ParseKind(token)
				if !ok {
					continue
				}
				coord := world.Coordinate{Row: row, Column: column, Levitation: levitation}
				blocks = append(blocks, world.NewBlock(coord, kind))
			}
		}
	}
	return width, height, blocks
}

// ParseWorld разбирает текст мира. Никогда не возвращает ошибку:
// некорректный ввод даёт пустой или частичный мир.
func ParseWorld(text string) world.World {
	width, height, blocks := ParseBlocks(text)
	return world.NewWorld(width, height, blocks)
}

// UnknownTokens возвращает токены, которые парсер молча пропустил бы
// (без "x" и пустых ячеек). Нужен для проверки пресетов.
func UnknownTokens(text string) []string {
	_, layers := Tokens(text)
	var unknown []string
	for _, layer := range layers {
		for _, line := range strings.Split(layer, "\n") {
			for _, token := range strings.Split(strings.TrimSpace(line), " ") {
				if token == "" || token == block.EmptyToken {
					continue
				}
				if _, ok := block.ParseKind(token); !ok {
					unknown = append(unknown, token)
				}
			}
		}
	}
	return unknown
}

// FormatWorld записывает мир в текстовый формат.
// Каждый уровень levitation становится слоем, верхний слой идёт первым.
func FormatWorld(w world.World) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(w.Width))
	sb.WriteString("x")
	sb.WriteString(strconv.Itoa(w.Height))

	rows, columns := w.Height, w.Width
	for _, b := range w.Blocks {
		if b.Coordinate.Row+1 > rows {
			rows = b.Coordinate.Row + 1
		}
		if b.Coordinate.Column+1 > columns {
			columns = b.Coordinate.Column + 1
		}
	}

	for levitation := w.MaxLevitation(); levitation >= 0 && w.Len() > 0; levitation-- {
		sb.WriteString(layerSeparator)
		for row := 0; row < rows; row++ {
			if row > 0 {
				sb.WriteString("\n")
			}
			for column := 0; column < columns; column++ {
				if column > 0 {
					sb.WriteString(" ")
				}
				b, ok := w.BlockAt(world.Coordinate{Row: row, Column: column, Levitation: levitation})
				if ok {
					sb.WriteString(string(b.Kind))
				} else {
					sb.WriteString(block.EmptyToken)
				}
			}
		}
	}
	return sb.String()
}
