// Package inference owns the process-wide ONNX model session and turns raw
// model outputs into decisions.
package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/hweber/particletrack/internal/domain"
	"github.com/hweber/particletrack/internal/preprocess"
)

// Config describes the deployed model artifact.
type Config struct {
	ModelPath  string
	Library    string // optional path to the onnxruntime shared library
	InputName  string
	OutputName string
	Shape      preprocess.Shape
	Classes    domain.Vocabulary
	// Binary marks a single-sigmoid-output model; Classes[0] is the
	// negative side, Classes[1] the positive one.
	Binary bool
}

// session is one loaded model ready to score tensors.
type session interface {
	run(input []float32) ([]float32, error)
	close()
}

// Engine scores preprocessed tensors against one model. The session is
// created lazily on first use; a failed load is never cached, so a later call
// retries. Runs are serialized through the engine mutex because the session
// reuses pre-bound input/output tensors.
type Engine struct {
	cfg  Config
	load func() (session, error)

	mu   sync.Mutex
	sess session
}

// New returns an engine that loads the configured ONNX model on first use.
func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg}
	e.load = e.loadModel
	return e
}

// Classes returns the vocabulary the engine predicts over.
func (e *Engine) Classes() domain.Vocabulary {
	return e.cfg.Classes
}

// Classify runs one forward pass and extracts a decision. The tensor must
// have exactly the configured shape. Initialization or runtime failures
// surface wrapping domain.ErrModelUnavailable.
func (e *Engine) Classify(ctx context.Context, tensor []float32) (domain.Decision, error) {
	if want := e.cfg.Shape.Elements(); len(tensor) != want {
		return domain.Decision{}, fmt.Errorf("tensor length %d, want %d: %w", len(tensor), want, domain.ErrInvariantViolation)
	}
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		s, err := e.load()
		if err != nil {
			return domain.Decision{}, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
		}
		e.sess = s
	}

	scores, err := e.sess.run(tensor)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%w: inference run: %v", domain.ErrModelUnavailable, err)
	}

	if e.cfg.Binary {
		return decideBinary(scores, e.cfg.Classes)
	}
	return decideMulti(scores, e.cfg.Classes)
}

// Reset drops the current session so the next call reloads the model.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != nil {
		e.sess.close()
		e.sess = nil
	}
}

// Close releases the session. The engine is reusable afterwards; the next
// Classify reloads.
func (e *Engine) Close() {
	e.Reset()
}
