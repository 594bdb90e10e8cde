package mission

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Mission - одна миссия будильника
type Mission struct {
	ID      uuid.UUID
	Content Content
}

// New создаёт миссию с новым идентификатором
func New(content Content) Mission {
	return Mission{ID: uuid.New(), Content: content}
}

// Type возвращает вид миссии
func (m Mission) Type() Type { return m.Content.Type() }

type wireMission struct {
	ID uuid.UUID `json:"id"`
	wireContent
}

// MarshalJSON кодирует миссию как {"id", "type", "properties"}
func (m Mission) MarshalJSON() ([]byte, error) {
	props, err := json.Marshal(m.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMission{ID: m.ID, wireContent: wireContent{Type: m.Content.Type(), Properties: props}})
}

// UnmarshalJSON декодирует миссию; без id генерируется новый
func (m *Mission) UnmarshalJSON(data []byte) error {
	var head struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	content, err := UnmarshalContent(data)
	if err != nil {
		return err
	}
	m.ID = head.ID
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Content = content
	return nil
}
