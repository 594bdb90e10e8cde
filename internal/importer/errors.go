package importer

import "errors"

var (
	ErrInvalidCode     = errors.New("importer: invalid code")
	ErrCodeNotFound    = errors.New("importer: code not found")
	ErrServer          = errors.New("importer: server error")
	ErrAlreadyImported = errors.New("importer: world already imported")
	ErrEmptyWorld      = errors.New("importer: empty world")
	ErrNotImported     = errors.New("importer: world is not imported")
)

// UserError - ошибка с текстом для пользователя. errors.Is видит
// сентинел через Unwrap.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

func userError(sentinel error, message string) error {
	return &UserError{Message: message, Err: sentinel}
}

// Message возвращает текст для пользователя или "" для прочих ошибок
func Message(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return ""
}
