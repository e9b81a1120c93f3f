package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// The onnxruntime environment is process-global. Guarded by a flag rather
// than sync.Once so a failed initialization can be retried.
var (
	ortMu    sync.Mutex
	ortReady bool
)

func initRuntime(library string) error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortReady {
		return nil
	}
	if library != "" {
		ort.SetSharedLibraryPath(library)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}
	ortReady = true
	return nil
}

// ortSession wraps an AdvancedSession with its pre-bound tensors. The bound
// tensors are shared across runs, which is why the engine serializes calls.
type ortSession struct {
	sess *ort.AdvancedSession
	in   *ort.Tensor[float32]
	out  *ort.Tensor[float32]
}

func (e *Engine) loadModel() (session, error) {
	if err := initRuntime(e.cfg.Library); err != nil {
		return nil, err
	}

	inShape := ort.NewShape(1, int64(e.cfg.Shape.Height), int64(e.cfg.Shape.Width), int64(e.cfg.Shape.Channels))
	outLen := len(e.cfg.Classes)
	if e.cfg.Binary {
		outLen = 1
	}
	outShape := ort.NewShape(1, int64(outLen))

	in, err := ort.NewEmptyTensor[float32](inShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	out, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		in.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	sess, err := ort.NewAdvancedSession(e.cfg.ModelPath,
		[]string{e.cfg.InputName}, []string{e.cfg.OutputName},
		[]ort.ArbitraryTensor{in}, []ort.ArbitraryTensor{out},
		nil)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ortSession{sess: sess, in: in, out: out}, nil
}

func (s *ortSession) run(input []float32) ([]float32, error) {
	copy(s.in.GetData(), input)
	if err := s.sess.Run(); err != nil {
		return nil, err
	}
	// Copy out of the bound tensor: its backing array is reused by the
	// next run.
	data := s.out.GetData()
	scores := make([]float32, len(data))
	copy(scores, data)
	return scores, nil
}

func (s *ortSession) close() {
	if s.in != nil {
		s.in.Destroy()
	}
	if s.out != nil {
		s.out.Destroy()
	}
	if s.sess != nil {
		s.sess.Destroy()
	}
}
