package logging

import (
	"sort"
	"sync"
)

// LoggerManager раздаёт логгеры компонентов поверх логгера по умолчанию
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers: make(map[string]*Logger),
		}
	})
	return globalManager
}

// GetLogger возвращает логгер компонента, создавая его при необходимости.
// До InitDefaultLogger возвращает nil: такой логгер молчит.
func (lm *LoggerManager) GetLogger(component string) *Logger {
	lm.mu.RLock()
	if logger, exists := lm.loggers[component]; exists {
		lm.mu.RUnlock()
		return logger
	}
	lm.mu.RUnlock()

	base := Default()
	if base == nil {
		return nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	// Проверяем ещё раз на случай гонки
	if logger, exists := lm.loggers[component]; exists {
		return logger
	}
	logger := base.child(component)
	lm.loggers[component] = logger
	return logger
}

// ListComponents возвращает отсортированный список зарегистрированных компонентов
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// SetLogLevel устанавливает уровни для компонента; false, если компонента нет
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) bool {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()

	if !exists {
		return false
	}
	logger.SetLevels(consoleLevel, fileLevel)
	return true
}

func (lm *LoggerManager) reset() {
	lm.mu.Lock()
	lm.loggers = make(map[string]*Logger)
	lm.mu.Unlock()
}

// Удобные функции для получения логгеров
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().GetLogger(component)
}

func GetGameLogger() *Logger {
	return GetComponentLogger("game")
}

func GetMissionLogger() *Logger {
	return GetComponentLogger("mission")
}

func GetImporterLogger() *Logger {
	return GetComponentLogger("importer")
}

func GetStorageLogger() *Logger {
	return GetComponentLogger("storage")
}

func GetAPILogger() *Logger {
	return GetComponentLogger("api")
}

func GetEventBusLogger() *Logger {
	return GetComponentLogger("eventbus")
}
