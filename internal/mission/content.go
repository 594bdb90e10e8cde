package mission

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/alarm-missions/internal/preset"
)

// Content - настройки миссии одного из видов.
// Набор реализаций закрыт: ShakeProperties, BlocksProperties,
// CodeProperties, PhotoProperties.
type Content interface {
	Type() Type
	isContent()
}

// ShakeProperties - миссия «Встряхни телефон»
type ShakeProperties struct {
	Sensitivity    float64 `json:"sensitivity"`      // 0..1, шаг 0.25
	NumberOfShakes int     `json:"number_of_shakes"` // 5..149
}

// BlocksProperties - миссия «Блоки»: выбранный мир-цель
type BlocksProperties struct {
	preset.Selection
}

// CodeProperties - миссия «Скан кода». Пустой Code - миссия не настроена.
type CodeProperties struct {
	Code string `json:"code_string,omitempty"`
}

// PhotoProperties - миссия «Фото»: отпечаток эталонного снимка
type PhotoProperties struct {
	Sensitivity  float64   `json:"sensitivity"`
	ImageData    []byte    `json:"image_data,omitempty"`
	FeaturePrint []float32 `json:"feature_print,omitempty"`
}

func (ShakeProperties) Type() Type { return TypeShake }
func (BlocksProperties) Type() Type { return TypeBlocks }
func (CodeProperties) Type() Type { return TypeCode }
func (PhotoProperties) Type() Type { return TypePhoto }

func (ShakeProperties) isContent() {}
func (BlocksProperties) isContent() {}
func (CodeProperties) isContent() {}
func (PhotoProperties) isContent() {}

// Значения по умолчанию
const (
	DefaultShakeSensitivity = 0.5
	DefaultNumberOfShakes   = 20
	DefaultPhotoSensitivity = 0.5
)

// DefaultContent возвращает настройки по умолчанию для вида миссии
func DefaultContent(t Type) (Content, error) {
	switch t {
	case TypeShake:
		return ShakeProperties{Sensitivity: DefaultShakeSensitivity, NumberOfShakes: DefaultNumberOfShakes}, nil
	case TypeBlocks:
		return BlocksProperties{}, nil
	case TypeCode:
		return CodeProperties{}, nil
	case TypePhoto:
		return PhotoProperties{Sensitivity: DefaultPhotoSensitivity}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

// InvalidReason возвращает причину, по которой миссию нельзя сохранить,
// или пустую строку.
func InvalidReason(c Content) string {
	switch p := c.(type) {
	case ShakeProperties:
		if p.NumberOfShakes <= 0 {
			return "Choose the number of shakes"
		}
		return ""
	case BlocksProperties:
		return ""
	case CodeProperties:
		if p.Code == "" {
			return "Select a code above first"
		}
		return ""
	case PhotoProperties:
		if len(p.FeaturePrint) == 0 {
			return "Take a photo first"
		}
		return ""
	}
	panic(fmt.Sprintf("mission: unhandled content %T", c))
}

// FieldKind - вид поля редактора настроек
type FieldKind string

const (
	FieldSlider  FieldKind = "slider"
	FieldPicker  FieldKind = "picker"
	FieldPreset  FieldKind = "preset"
	FieldScanner FieldKind = "scanner"
	FieldCamera  FieldKind = "camera"
)

// Field - одно поле редактора
type Field struct {
	Name   string    `json:"name"`
	Header string    `json:"header"`
	Kind   FieldKind `json:"kind"`
	Min    float64   `json:"min,omitempty"`
	Max    float64   `json:"max,omitempty"`
	Step   float64   `json:"step,omitempty"`
	Value  any       `json:"value,omitempty"`
}

// Editor - описание редактора настроек миссии
type Editor struct {
	Type          Type    `json:"type"`
	Fields        []Field `json:"fields"`
	InvalidReason string  `json:"invalid_reason,omitempty"`
}

// PropertiesEditor строит описание редактора для настроек
func PropertiesEditor(c Content) Editor {
	e := Editor{Type: c.Type(), InvalidReason: InvalidReason(c)}
	switch p := c.(type) {
	case ShakeProperties:
		e.Fields = []Field{
			{Name: "sensitivity", Header: "Shake Sensitivity", Kind: FieldSlider, Min: 0, Max: 1, Step: 0.25, Value: p.Sensitivity},
			{Name: "number_of_shakes", Header: "Number of Shakes", Kind: FieldPicker, Min: 5, Max: 149, Step: 1, Value: p.NumberOfShakes},
		}
	case BlocksProperties:
		e.Fields = []Field{
			{Name: "selected_preset_name", Header: "World", Kind: FieldPreset, Value: p.Name},
		}
	case CodeProperties:
		header := "Set Up"
		if p.Code != "" {
			header = "Selected Code:"
		}
		e.Fields = []Field{
			{Name: "code_string", Header: header, Kind: FieldScanner, Value: p.Code},
		}
	case PhotoProperties:
		e.Fields = []Field{
			{Name: "image_data", Header: "Photo", Kind: FieldCamera},
			{Name: "sensitivity", Header: "Sensitivity", Kind: FieldSlider, Min: 0, Max: 1, Step: 0.25, Value: p.Sensitivity},
		}
	default:
		panic(fmt.Sprintf("mission: unhandled content %T", c))
	}
	return e
}

// wireContent - JSON-представление с дискриминатором type
type wireContent struct {
	Type       Type            `json:"type"`
	Properties json.RawMessage `json:"properties"`
}

// MarshalContent кодирует настройки вместе с видом миссии
func MarshalContent(c Content) ([]byte, error) {
	props, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireContent{Type: c.Type(), Properties: props})
}

// UnmarshalContent декодирует настройки по дискриминатору type.
// Отсутствующие поля получают значения по умолчанию.
func UnmarshalContent(data []byte) (Content, error) {
	var wire wireContent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("декодирование миссии: %w", err)
	}
	if wire.Type == "" {
		return nil, fmt.Errorf("%w: empty type", ErrUnknownType)
	}
	base, err := DefaultContent(wire.Type)
	if err != nil {
		return nil, err
	}
	if len(wire.Properties) == 0 || string(wire.Properties) == "null" {
		return base, nil
	}

	switch p := base.(type) {
	case ShakeProperties:
		err = json.Unmarshal(wire.Properties, &p)
		return p, wrapDecode(err)
	case BlocksProperties:
		err = json.Unmarshal(wire.Properties, &p)
		return p, wrapDecode(err)
	case CodeProperties:
		err = json.Unmarshal(wire.Properties, &p)
		return p, wrapDecode(err)
	case PhotoProperties:
		err = json.Unmarshal(wire.Properties, &p)
		return p, wrapDecode(err)
	}
	panic(fmt.Sprintf("mission: unhandled content %T", base))
}

func wrapDecode(err error) error {
	if err != nil {
		return fmt.Errorf("декодирование настроек миссии: %w", err)
	}
	return nil
}
