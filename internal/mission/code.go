package mission

import "sync"

// Подписи кнопок миссии «Скан кода»
const (
	ConfirmMismatchLabel = "Yes, Finish Mission"
	RetryScanLabel       = "Try Again"
	FinishMissionLabel   = "Finish Mission"
)

// ScanResult - итог сканирования
type ScanResult struct {
	Matched  bool   `json:"matched"`
	Scanned  string `json:"scanned"`
	Expected string `json:"expected"`
	// Prompt - вопрос при несовпадении
	Prompt string `json:"prompt,omitempty"`
}

// CodeSolver сравнивает отсканированный код с ожидаемым
type CodeSolver struct {
	props    CodeProperties
	reporter Reporter

	mu       sync.Mutex
	mismatch *string
}

// NewCodeSolver создаёт решатель
func NewCodeSolver(props CodeProperties, reporter Reporter) *CodeSolver {
	return &CodeSolver{props: props, reporter: reporter}
}

// Scan обрабатывает отсканированный код. Совпадение завершает миссию,
// несовпадение ждёт подтверждения пользователя.
func (s *CodeSolver) Scan(code string) ScanResult {
	s.reporter.Interact()

	if s.props.Code != "" && code == s.props.Code {
		s.reporter.Complete()
		return ScanResult{Matched: true, Scanned: code, Expected: s.props.Code}
	}

	s.mu.Lock()
	s.mismatch = &code
	s.mu.Unlock()
	return ScanResult{
		Scanned:  code,
		Expected: s.props.Code,
		Prompt:   "The scanned code '" + code + "' doesn't match '" + s.props.Code + "'.",
	}
}

// ScannerFailed описывает отказ камеры
func (s *CodeSolver) ScannerFailed(err error) *LocalError {
	return &LocalError{Op: "scanner", Message: "Couldn't scan the code", Fallback: RetryScanLabel, Err: err}
}

// PendingMismatch возвращает код, ожидающий подтверждения
func (s *CodeSolver) PendingMismatch() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mismatch == nil {
		return "", false
	}
	return *s.mismatch, true
}

// ConfirmMismatch - «Yes, Finish Mission»: пользователь уверен, что код верный
func (s *CodeSolver) ConfirmMismatch() error {
	s.mu.Lock()
	pending := s.mismatch != nil
	s.mismatch = nil
	s.mu.Unlock()
	if !pending {
		return ErrNoPendingMismatch
	}
	s.reporter.Complete()
	return nil
}

// Dismiss - «Try Again»: сбрасывает несовпадение
func (s *CodeSolver) Dismiss() {
	s.mu.Lock()
	s.mismatch = nil
	s.mu.Unlock()
}

// ManualFinishAvailable - миссия не настроена, доступна кнопка «Finish Mission»
func (s *CodeSolver) ManualFinishAvailable() bool {
	return s.props.Code == ""
}

// ManualFinish завершает ненастроенную миссию
func (s *CodeSolver) ManualFinish() error {
	if !s.ManualFinishAvailable() {
		return ErrManualFinishUnavailable
	}
	s.reporter.Complete()
	return nil
}
