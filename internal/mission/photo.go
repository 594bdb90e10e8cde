package mission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
)

// DefaultPhotoThreshold - снимок засчитывается при расстоянии меньше порога
const DefaultPhotoThreshold = 16.0

// ErrFeatureMismatch - отпечатки разной длины
var ErrFeatureMismatch = errors.New("mission: feature print length mismatch")

// FeatureExtractor строит отпечаток изображения. Реализация внешняя (ML).
type FeatureExtractor interface {
	Extract(ctx context.Context, image []byte) ([]float32, error)
}

// FeatureExtractorFunc позволяет использовать функцию как FeatureExtractor
type FeatureExtractorFunc func(ctx context.Context, image []byte) ([]float32, error)

func (f FeatureExtractorFunc) Extract(ctx context.Context, image []byte) ([]float32, error) {
	return f(ctx, image)
}

// Distance - евклидово расстояние между отпечатками
func Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrFeatureMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// PhotoResult - итог сравнения снимка
type PhotoResult struct {
	Matched  bool        `json:"matched"`
	Distance float64     `json:"distance"`
	Err      *LocalError `json:"error,omitempty"`
}

// PhotoSolver сравнивает снимки с эталоном
type PhotoSolver struct {
	props     PhotoProperties
	reporter  Reporter
	extractor FeatureExtractor
	threshold float64

	mu          sync.Mutex
	lastResult  *PhotoResult
	manualAllow bool
	wg          sync.WaitGroup
}

// NewPhotoSolver создаёт решатель. threshold <= 0 => DefaultPhotoThreshold.
func NewPhotoSolver(props PhotoProperties, reporter Reporter, extractor FeatureExtractor, threshold float64) *PhotoSolver {
	if threshold <= 0 {
		threshold = DefaultPhotoThreshold
	}
	return &PhotoSolver{props: props, reporter: reporter, extractor: extractor, threshold: threshold}
}

// Submit сравнивает снимок в отдельной горутине.
// Канал получает ровно один результат и закрывается.
func (s *PhotoSolver) Submit(ctx context.Context, image []byte) <-chan PhotoResult {
	s.reporter.Interact()

	out := make(chan PhotoResult, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(out)

		res := s.evaluate(ctx, image)
		s.mu.Lock()
		s.lastResult = &res
		if res.Err != nil {
			s.manualAllow = true
		}
		s.mu.Unlock()

		if res.Matched {
			s.reporter.Complete()
		}
		out <- res
	}()
	return out
}

func (s *PhotoSolver) evaluate(ctx context.Context, image []byte) PhotoResult {
	if len(s.props.FeaturePrint) == 0 {
		return PhotoResult{Err: s.localError(errors.New("no reference photo"))}
	}
	if s.extractor == nil {
		return PhotoResult{Err: s.localError(errors.New("feature extractor is not configured"))}
	}
	features, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return PhotoResult{Err: s.localError(err)}
	}
	d, err := Distance(s.props.FeaturePrint, features)
	if err != nil {
		return PhotoResult{Err: s.localError(err)}
	}
	return PhotoResult{Matched: d < s.threshold, Distance: d}
}

func (s *PhotoSolver) localError(err error) *LocalError {
	return &LocalError{
		Op:       "feature print",
		Message:  "Error computing image similarity",
		Fallback: FinishMissionLabel,
		Err:      err,
	}
}

// LastResult возвращает результат последней попытки
func (s *PhotoSolver) LastResult() (PhotoResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return PhotoResult{}, false
	}
	return *s.lastResult, true
}

// ManualFinish завершает миссию после сбоя сравнения
func (s *PhotoSolver) ManualFinish() error {
	s.mu.Lock()
	allowed := s.manualAllow
	s.mu.Unlock()
	if !allowed {
		return ErrManualFinishUnavailable
	}
	s.reporter.Complete()
	return nil
}

// Wait ждёт завершения всех сравнений
func (s *PhotoSolver) Wait() { s.wg.Wait() }
