package mission

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType - неизвестный вид миссии
	ErrUnknownType = errors.New("mission: unknown type")
	// ErrNotRetryable - повтор недоступен в контексте будильника
	ErrNotRetryable = errors.New("mission: retry is not allowed in alarm context")
	// ErrNotExpired - повтор возможен только после истечения времени
	ErrNotExpired = errors.New("mission: mission has not expired")
	// ErrManualFinishUnavailable - ручное завершение сейчас не предусмотрено
	ErrManualFinishUnavailable = errors.New("mission: manual finish is not available")
	// ErrNoPendingMismatch - нет отсканированного кода, ожидающего подтверждения
	ErrNoPendingMismatch = errors.New("mission: no scanned code awaits confirmation")
	// ErrRunnerStopped - раннер уже остановлен
	ErrRunnerStopped = errors.New("mission: runner is stopped")
	// ErrRunnerNotStarted - сигнал пришёл до Start
	ErrRunnerNotStarted = errors.New("mission: runner is not started")
)

// LocalError - сбой внутри миссии (датчик, камера, сеть).
// Жизненный цикл миссии он не меняет: пользователь видит Message и
// может продолжить вручную кнопкой Fallback.
type LocalError struct {
	Op       string `json:"op"`       // "accelerometer", "scanner", "feature print"
	Message  string `json:"message"`  // текст для пользователя
	Fallback string `json:"fallback"` // подпись кнопки ручного продолжения
	Err      error  `json:"-"`
}

func (e *LocalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *LocalError) Unwrap() error { return e.Err }

// AsLocalError достаёт LocalError из цепочки ошибок
func AsLocalError(err error) (*LocalError, bool) {
	var le *LocalError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
