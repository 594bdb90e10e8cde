package mission

import (
	"math"
	"sync"
	"time"

	"github.com/annel0/alarm-missions/internal/throttle"
)

// Пороги распознавания встряхивания
const (
	AccelerationThreshold = 0.2
	MinXYMagnitude        = 0.85
	MaxXYMagnitude        = 3.45
	SensitivityScale      = 3.9
	FastShakeSensitivity  = 0.4
	FastShakeInterval     = 200 * time.Millisecond
	SlowShakeInterval     = 420 * time.Millisecond
	ManualShakeLabel      = "Tap me instead"
)

// Acceleration - отсчёт акселерометра в g
type Acceleration struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IsShake проверяет, похож ли отсчёт на встряхивание при заданной чувствительности
func IsShake(a Acceleration, sensitivity float64) bool {
	if math.Abs(a.X) <= AccelerationThreshold &&
		math.Abs(a.Y) <= AccelerationThreshold &&
		math.Abs(a.Z) <= AccelerationThreshold {
		return false
	}
	xy := math.Hypot(a.X, a.Y)
	if xy <= MinXYMagnitude || xy >= MaxXYMagnitude {
		return false
	}
	change := math.Abs(a.X + a.Y + a.Z)
	return sensitivity*SensitivityScale < change
}

// ShakeInterval возвращает окно троттлинга для чувствительности
func ShakeInterval(sensitivity float64) time.Duration {
	if sensitivity < FastShakeSensitivity {
		return FastShakeInterval
	}
	return SlowShakeInterval
}

// ShakeSolver считает встряхивания и завершает миссию на NumberOfShakes
type ShakeSolver struct {
	props    ShakeProperties
	reporter Reporter
	throttle *throttle.Throttler

	mu        sync.Mutex
	shakes    int
	sensorErr *LocalError
}

// NewShakeSolver создаёт решатель на системных часах
func NewShakeSolver(props ShakeProperties, reporter Reporter) *ShakeSolver {
	return NewShakeSolverWithClock(props, reporter, throttle.RealClock)
}

// NewShakeSolverWithClock создаёт решатель с заданными часами
func NewShakeSolverWithClock(props ShakeProperties, reporter Reporter, clock throttle.Clock) *ShakeSolver {
	return &ShakeSolver{
		props:    props,
		reporter: reporter,
		throttle: throttle.NewWithClock(throttle.Config{
			Interval: ShakeInterval(props.Sensitivity),
			Leading:  true,
			Trailing: true,
		}, clock),
	}
}

// Sample обрабатывает отсчёт акселерометра. Возвращает true, если
// отсчёт распознан как встряхивание (засчитан он может быть позже).
func (s *ShakeSolver) Sample(a Acceleration) bool {
	if !IsShake(a, s.props.Sensitivity) {
		return false
	}
	s.throttle.Do(s.increment)
	return true
}

// ManualShake засчитывает встряхивание кнопкой
func (s *ShakeSolver) ManualShake() {
	s.increment()
}

// SensorFailed фиксирует отказ акселерометра и включает ручной режим
func (s *ShakeSolver) SensorFailed(err error) *LocalError {
	le := &LocalError{
		Op:       "accelerometer",
		Message:  "Couldn't activate accelerometer",
		Fallback: ManualShakeLabel,
		Err:      err,
	}
	s.mu.Lock()
	s.sensorErr = le
	s.mu.Unlock()
	return le
}

// SensorError возвращает ошибку датчика, если она была
func (s *ShakeSolver) SensorError() *LocalError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sensorErr
}

func (s *ShakeSolver) increment() {
	s.mu.Lock()
	s.shakes++
	done := s.shakes >= s.props.NumberOfShakes
	s.mu.Unlock()

	s.reporter.Interact()
	if done {
		s.reporter.Complete()
	}
}

// Shakes возвращает засчитанные встряхивания
func (s *ShakeSolver) Shakes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shakes
}

// Remaining возвращает оставшиеся встряхивания, не меньше 0
func (s *ShakeSolver) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rest := s.props.NumberOfShakes - s.shakes; rest > 0 {
		return rest
	}
	return 0
}

// Close отменяет отложенное встряхивание
func (s *ShakeSolver) Close() {
	s.throttle.Stop()
}
