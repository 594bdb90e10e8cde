package preset

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/annel0/alarm-missions/internal/logging"
	"github.com/annel0/alarm-missions/internal/world"
)

// ErrPresetNotFound - пресета с таким именем нет
var ErrPresetNotFound = errors.New("preset: not found")

//go:embed assets/WorldPresets.txt
var bundledPresets string

// StatueName - имя встроенного мира, который используется, когда пресетов нет
const StatueName = "Statue"

const statueText = `3x3

x x x
x leaf x
x x x

x x x
x log x
x x x

x x x
x log x
x x x

x x x
x log x
log x log


grass grass grass
grass grass grass
grass grass grass`

// GeneratedPrefix - имя мира, построенного генератором: "Generated #<seed>"
const GeneratedPrefix = "Generated #"

// GeneratedSize - сторона сгенерированного мира
const GeneratedSize = 5

// Generated строит мир из шума Перлина по сиду
func Generated(seed int64) WorldPreset {
	return WorldPreset{
		Name:  GeneratedPrefix + strconv.FormatInt(seed, 10),
		World: world.NewGenerator(seed).Generate(GeneratedSize, GeneratedSize),
	}
}

// generatedSeed разбирает сид из имени сгенерированного мира
func generatedSeed(name string) (int64, bool) {
	rest, ok := strings.CutPrefix(name, GeneratedPrefix)
	if !ok {
		return 0, false
	}
	seed, err := strconv.ParseInt(rest, 10, 64)
	return seed, err == nil
}

// Statue возвращает встроенный запасной мир
func Statue() WorldPreset {
	return WorldPreset{Name: StatueName, World: ParseWorld(statueText)}
}

// Store - набор пресетов. Создаётся один раз точкой входа и передаётся
// зависимым компонентам; после создания только читается.
type Store struct {
	presets []WorldPreset
	byName  map[string]int
}

// NewStore разбирает общий файл пресетов.
// При повторе имени остаётся первый пресет.
func NewStore(bundle string) *Store {
	s := &Store{byName: make(map[string]int)}
	for _, p := range ParseBundle(bundle) {
		if _, dup := s.byName[p.Name]; dup {
			logging.Warn("⚠️ Повтор пресета %q пропущен", p.Name)
			continue
		}
		s.byName[p.Name] = len(s.presets)
		s.presets = append(s.presets, p)
	}
	return s
}

// DefaultStore возвращает хранилище со встроенными пресетами
func DefaultStore() *Store {
	return NewStore(bundledPresets)
}

// LoadStore читает общий файл с диска. Пустой путь - встроенные пресеты.
func LoadStore(path string) (*Store, error) {
	if path == "" {
		return DefaultStore(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение пресетов %s: %w", path, err)
	}
	s := NewStore(string(data))
	logging.Info("📦 Загружено пресетов: %d (%s)", s.Len(), path)
	return s, nil
}

// BundledText возвращает встроенный общий файл пресетов
func BundledText() string {
	return bundledPresets
}

// Get ищет пресет по точному имени
func (s *Store) Get(name string) (WorldPreset, error) {
	i, ok := s.byName[name]
	if !ok {
		return WorldPreset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return s.presets[i], nil
}

// All возвращает пресеты в порядке файла
func (s *Store) All() []WorldPreset {
	out := make([]WorldPreset, len(s.presets))
	copy(out, s.presets)
	return out
}

// Names возвращает имена пресетов в порядке файла
func (s *Store) Names() []string {
	names := make([]string, len(s.presets))
	for i, p := range s.presets {
		names[i] = p.Name
	}
	return names
}

// Len возвращает количество пресетов
func (s *Store) Len() int { return len(s.presets) }

// Random возвращает случайный пресет; false, если хранилище пустое
func (s *Store) Random(rng *rand.Rand) (WorldPreset, bool) {
	if len(s.presets) == 0 {
		return WorldPreset{}, false
	}
	return s.presets[rng.Intn(len(s.presets))], true
}

// Selection - выбор мира в настройках миссии.
// Пустое Name означает случайный мир. Text заполнен для импортированных миров.
type Selection struct {
	Name string `json:"selected_preset_name,omitempty"`
	Text string `json:"selected_preset_string,omitempty"`
}

// Resolve выбирает цель миссии. Порядок: импортированный текст
// выбранного мира, встроенный пресет с тем же именем, сгенерированный мир
// ("Generated #<seed>"), случайный пресет, встроенная статуя.
func (s *Store) Resolve(sel Selection, rng *rand.Rand) WorldPreset {
	if sel.Name != "" {
		if p, ok := ParsePreset(sel.Text); ok {
			return p
		}
		if p, err := s.Get(sel.Name); err == nil {
			return p
		}
		if seed, ok := generatedSeed(sel.Name); ok {
			return Generated(seed)
		}
		logging.Warn("⚠️ Пресет %q не найден, берём случайный", sel.Name)
	}
	if p, ok := s.Random(rng); ok {
		return p
	}
	return Statue()
}

// Goal - то же, что Resolve, но возвращает только мир
func (s *Store) Goal(sel Selection, rng *rand.Rand) world.World {
	return s.Resolve(sel, rng).World
}
