package session

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/alarm-missions/internal/mission"
	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("session: not found")
	ErrWrongMissionType = errors.New("session: operation does not match mission type")
)

// Session - запущенная миссия: автомат, его раннер и решатель по типу
type Session struct {
	ID        uuid.UUID
	Mission   mission.Mission
	Context   mission.Context
	AlarmID   uuid.UUID // Nil вне будильника
	CreatedAt time.Time

	runner *mission.Runner
	shake  *mission.ShakeSolver
	blocks *mission.BlocksSolver
	code   *mission.CodeSolver
	photo  *mission.PhotoSolver
}

// View - состояние сессии для клиентов
type View struct {
	ID        string           `json:"id"`
	Mission   mission.Mission  `json:"mission"`
	Metadata  mission.Metadata `json:"metadata"`
	Lifecycle mission.Snapshot `json:"lifecycle"`
	AlarmID   string           `json:"alarm_id,omitempty"`

	Shake  *ShakeView  `json:"shake,omitempty"`
	Blocks *BlocksView `json:"blocks,omitempty"`
	Code   *CodeView   `json:"code,omitempty"`
	Photo  *PhotoView  `json:"photo,omitempty"`
}

type ShakeView struct {
	Shakes      int                 `json:"shakes"`
	Remaining   int                 `json:"remaining"`
	SensorError *mission.LocalError `json:"sensor_error,omitempty"`
}

type BlocksView struct {
	GoalName     string       `json:"goal_name"`
	Goal         world.World  `json:"goal"`
	Current      world.World  `json:"current"`
	Items        []block.Item `json:"items"`
	SelectedItem block.Item   `json:"selected_item"`
	Missing      int          `json:"missing"`
	Extra        int          `json:"extra"`
}

type CodeView struct {
	PendingMismatch       string `json:"pending_mismatch,omitempty"`
	ManualFinishAvailable bool   `json:"manual_finish_available"`
}

type PhotoView struct {
	LastResult *mission.PhotoResult `json:"last_result,omitempty"`
}

// View собирает снимок сессии
func (s *Session) View() View {
	v := View{
		ID:        s.ID.String(),
		Mission:   s.Mission,
		Metadata:  s.Mission.Type().Metadata(),
		Lifecycle: s.runner.Snapshot(),
	}
	if s.AlarmID != uuid.Nil {
		v.AlarmID = s.AlarmID.String()
	}
	switch {
	case s.shake != nil:
		v.Shake = &ShakeView{Shakes: s.shake.Shakes(), Remaining: s.shake.Remaining(), SensorError: s.shake.SensorError()}
	case s.blocks != nil:
		goal := s.blocks.Goal()
		current := s.blocks.Model().World()
		v.Blocks = &BlocksView{
			GoalName:     goal.Name,
			Goal:         goal.World,
			Current:      current,
			Items:        s.blocks.Level().Items,
			SelectedItem: s.blocks.Model().SelectedItem(),
			Missing:      len(world.MissingBlocks(current, goal.World)),
			Extra:        len(world.ExtraBlocks(current, goal.World)),
		}
	case s.code != nil:
		pending, _ := s.code.PendingMismatch()
		v.Code = &CodeView{PendingMismatch: pending, ManualFinishAvailable: s.code.ManualFinishAvailable()}
	case s.photo != nil:
		v.Photo = &PhotoView{}
		if res, ok := s.photo.LastResult(); ok {
			v.Photo.LastResult = &res
		}
	}
	return v
}

// Status возвращает состояние автомата
func (s *Session) Status() mission.Status {
	return s.runner.Snapshot().Status
}

// Interact сообщает о действии пользователя
func (s *Session) Interact() { s.runner.Interact() }

// Retry перезапускает истёкшую миссию предпросмотра
func (s *Session) Retry(ctx context.Context) error { return s.runner.Retry(ctx) }

// Shake обрабатывает отсчёт акселерометра; nil - кнопка «Tap me instead»
func (s *Session) Shake(sample *mission.Acceleration) (bool, error) {
	if s.shake == nil {
		return false, ErrWrongMissionType
	}
	if sample == nil {
		s.shake.ManualShake()
		return true, nil
	}
	return s.shake.Sample(*sample), nil
}

// SensorFailed включает ручной режим встряхивания
func (s *Session) SensorFailed(err error) (*mission.LocalError, error) {
	if s.shake == nil {
		return nil, ErrWrongMissionType
	}
	return s.shake.SensorFailed(err), nil
}

// Scan передаёт отсканированный код
func (s *Session) Scan(code string) (mission.ScanResult, error) {
	if s.code == nil {
		return mission.ScanResult{}, ErrWrongMissionType
	}
	return s.code.Scan(code), nil
}

// ConfirmMismatch - «Yes, Finish Mission»
func (s *Session) ConfirmMismatch() error {
	if s.code == nil {
		return ErrWrongMissionType
	}
	return s.code.ConfirmMismatch()
}

// DismissMismatch - «Try Again»
func (s *Session) DismissMismatch() error {
	if s.code == nil {
		return ErrWrongMissionType
	}
	s.code.Dismiss()
	return nil
}

// PlaceBlock ставит блок; пустой kind - блок выбранного предмета
func (s *Session) PlaceBlock(ctx context.Context, coord world.Coordinate, kind block.BlockKind) error {
	if s.blocks == nil {
		return ErrWrongMissionType
	}
	return s.blocks.Place(ctx, coord, kind)
}

// RemoveBlock убирает блок
func (s *Session) RemoveBlock(ctx context.Context, coord world.Coordinate) error {
	if s.blocks == nil {
		return ErrWrongMissionType
	}
	return s.blocks.Remove(ctx, coord)
}

// SelectItem выбирает предмет хотбара
func (s *Session) SelectItem(item block.Item) (bool, error) {
	if s.blocks == nil {
		return false, ErrWrongMissionType
	}
	return s.blocks.Select(item), nil
}

// SubmitPhoto сравнивает снимок с эталоном и ждёт результата
func (s *Session) SubmitPhoto(ctx context.Context, image []byte) (mission.PhotoResult, error) {
	if s.photo == nil {
		return mission.PhotoResult{}, ErrWrongMissionType
	}
	select {
	case res := <-s.photo.Submit(ctx, image):
		return res, nil
	case <-ctx.Done():
		return mission.PhotoResult{}, ctx.Err()
	}
}

// Finish - ручное завершение там, где оно доступно: ненастроенный код
// или сбой сравнения фото.
func (s *Session) Finish() error {
	switch {
	case s.code != nil:
		return s.code.ManualFinish()
	case s.photo != nil:
		return s.photo.ManualFinish()
	}
	return mission.ErrManualFinishUnavailable
}

func (s *Session) close() {
	s.runner.Stop()
	switch {
	case s.shake != nil:
		s.shake.Close()
	case s.blocks != nil:
		s.blocks.Close()
	case s.photo != nil:
		s.photo.Wait()
	}
}
