package statclassifier

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vaibhav1874/TrueVail/internal/logger"
)

// CorpusSource supplies training examples for the lazy first build
type CorpusSource func() ([]Example, error)

// Detector owns the process-wide model. The first Predict (or Warm) builds it
// exactly once; afterwards reads are lock-free.
type Detector struct {
	source CorpusSource
	opts   VectorizerOptions
	logger *logrus.Logger

	once     sync.Once
	buildErr error
	model    atomic.Pointer[Model]
	trainMu  sync.Mutex
}

// NewDetector creates a detector that trains from source on first use
func NewDetector(source CorpusSource, opts VectorizerOptions) *Detector {
	if source == nil {
		source = BundledCorpus
	}
	return &Detector{source: source, opts: opts, logger: logger.Log}
}

// Warm forces the one-time build and reports its outcome
func (d *Detector) Warm() error {
	d.once.Do(d.build)
	if d.model.Load() == nil {
		if d.buildErr != nil {
			return fmt.Errorf("%w: %v", ErrNotTrained, d.buildErr)
		}
		return ErrNotTrained
	}
	return nil
}

// Predict classifies text with the current model
func (d *Detector) Predict(text string) (Prediction, error) {
	if err := d.Warm(); err != nil {
		return Prediction{}, err
	}
	return d.model.Load().Predict(text)
}

// Retrain builds a fresh model from examples and swaps it in atomically.
// The previous model is discarded, never extended.
func (d *Detector) Retrain(examples []Example) error {
	d.trainMu.Lock()
	defer d.trainMu.Unlock()

	m, err := Train(examples, d.opts)
	if err != nil {
		return err
	}
	d.model.Store(m)
	d.logger.WithFields(map[string]interface{}{
		"component":  "statclassifier",
		"examples":   m.trainedOn,
		"vocabulary": m.VocabularySize(),
	}).Info("Statistical classifier retrained")
	return nil
}

func (d *Detector) build() {
	d.trainMu.Lock()
	defer d.trainMu.Unlock()

	if d.model.Load() != nil {
		return
	}
	start := time.Now()
	examples, err := d.source()
	if err != nil {
		d.buildErr = fmt.Errorf("load corpus: %w", err)
		logger.LogErrorWithStack(d.buildErr, map[string]interface{}{"component": "statclassifier"})
		return
	}
	m, err := Train(examples, d.opts)
	if err != nil {
		d.buildErr = err
		logger.LogErrorWithStack(err, map[string]interface{}{"component": "statclassifier"})
		return
	}
	d.model.Store(m)
	d.logger.WithFields(map[string]interface{}{
		"component":   "statclassifier",
		"examples":    m.trainedOn,
		"vocabulary":  m.VocabularySize(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Statistical classifier trained")
}
