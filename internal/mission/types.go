package mission

import (
	"encoding/json"
	"fmt"
)

// Type - вид миссии
type Type string

const (
	TypeShake  Type = "shake"
	TypeBlocks Type = "blocks"
	TypeCode   Type = "code"
	TypePhoto  Type = "photo"
)

// AllTypes возвращает все виды миссий в порядке показа
func AllTypes() []Type {
	return []Type{TypeShake, TypeBlocks, TypeCode, TypePhoto}
}

// Metadata - описание вида миссии для интерфейса
type Metadata struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Metadata возвращает иконку, заголовок и описание
func (t Type) Metadata() Metadata {
	switch t {
	case TypeShake:
		return Metadata{Icon: "iphone.radiowaves.left.and.right", Title: "Shake", Description: "Shake your phone"}
	case TypeBlocks:
		return Metadata{Icon: "cube", Title: "Blocks", Description: "Craft with blocks"}
	case TypeCode:
		return Metadata{Icon: "qrcode", Title: "Code Scan", Description: "Scan a QR code or barcode"}
	case TypePhoto:
		return Metadata{Icon: "camera", Title: "Photo", Description: "Take a photo of an object"}
	}
	return Metadata{Title: string(t)}
}

// ParseType разбирает вид миссии
func ParseType(s string) (Type, error) {
	for _, t := range AllTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// UnmarshalJSON отвергает неизвестные виды
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
