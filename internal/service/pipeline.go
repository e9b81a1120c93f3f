package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/hweber/particletrack/internal/domain"
	"github.com/hweber/particletrack/internal/logger"
	"github.com/hweber/particletrack/internal/preprocess"
	"github.com/hweber/particletrack/internal/storage"
	"github.com/hweber/particletrack/internal/store"
)

// Stage is how far one image got through the pipeline. The success path is
// received -> uploaded -> preprocessed -> classified -> persisted; each
// *_failed stage is terminal for that image only.
type Stage string

const (
	StageReceived     Stage = "received"
	StageUploaded     Stage = "uploaded"
	StagePreprocessed Stage = "preprocessed"
	StageClassified   Stage = "classified"
	StagePersisted    Stage = "persisted"

	StageUploadFailed     Stage = "upload_failed"
	StagePreprocessFailed Stage = "preprocess_failed"
	StageClassifyFailed   Stage = "classify_failed"
	StagePersistFailed    Stage = "persist_failed"
)

// Submission is one image handed to the pipeline: the client filename is only
// a name hint, the blob store assigns the stored name.
type Submission struct {
	FileName string
	Data     []byte
}

// ImageResult is the terminal state of one submission.
type ImageResult struct {
	FileName string                   `json:"fileName"`
	Stage    Stage                    `json:"stage"`
	Reason   string                   `json:"reason,omitempty"`
	Record   *domain.PredictionRecord `json:"record,omitempty"`
}

// Persisted reports whether the image completed the pipeline.
func (r ImageResult) Persisted() bool {
	return r.Stage == StagePersisted
}

// BatchResult aggregates the per-image outcomes of one batch.
type BatchResult struct {
	Persisted int           `json:"persisted"`
	Failed    int           `json:"failed"`
	Results   []ImageResult `json:"results"`
}

// Failures returns the per-image failures of the batch.
func (b *BatchResult) Failures() []ImageResult {
	var out []ImageResult
	for _, r := range b.Results {
		if !r.Persisted() {
			out = append(out, r)
		}
	}
	return out
}

// Classifier scores one preprocessed tensor. *inference.Engine implements it.
type Classifier interface {
	Classify(ctx context.Context, tensor []float32) (domain.Decision, error)
}

// Config holds pipeline tuning knobs.
type Config struct {
	Workers int
	// DegradedMode persists the explicit unavailable placeholder instead
	// of failing an image when classification cannot run.
	DegradedMode bool
}

// PipelineService runs submitted images through upload, preprocessing,
// inference and persistence. Images in a batch are independent: they run
// concurrently and one failure never aborts the others.
type PipelineService struct {
	blobs      storage.BlobStore
	gateway    store.Gateway
	pre        *preprocess.Preprocessor
	classifier Classifier // nil when the model is disabled
	builder    *domain.RecordBuilder
	log        *logger.Logger
	workers    int
	degraded   bool
}

// NewPipelineService wires the pipeline. classifier may be nil to run without
// a model; whether that persists placeholders or fails images depends on
// cfg.DegradedMode.
func NewPipelineService(
	blobs storage.BlobStore,
	gateway store.Gateway,
	pre *preprocess.Preprocessor,
	classifier Classifier,
	log *logger.Logger,
	cfg *Config,
) *PipelineService {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &PipelineService{
		blobs:      blobs,
		gateway:    gateway,
		pre:        pre,
		classifier: classifier,
		builder:    domain.NewRecordBuilder(),
		log:        log,
		workers:    workers,
		degraded:   cfg.DegradedMode,
	}
}

// ProcessBatch runs every submission to a terminal stage and reports the
// aggregate. Completion order across images is unspecified; the store's
// most-recent-first listing reflects persistence order, not submission order.
func (s *PipelineService) ProcessBatch(ctx context.Context, subs []Submission) *BatchResult {
	if s.log != nil {
		ctx = s.log.WithContext(ctx)
	}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldBatchID:   uuid.New().String(),
		logger.FieldComponent: "pipeline",
	})

	results := make([]ImageResult, len(subs))
	jobs := make(chan int)

	workers := s.workers
	if workers > len(subs) {
		workers = len(subs)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.processOne(ctx, subs[idx])
			}
		}()
	}

	for idx := range subs {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	batch := &BatchResult{Results: results}
	for _, r := range results {
		if r.Persisted() {
			batch.Persisted++
		} else {
			batch.Failed++
		}
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		"persisted": batch.Persisted,
		"failed":    batch.Failed,
	}).Info("Batch completed")

	return batch
}

func (s *PipelineService) processOne(ctx context.Context, sub Submission) ImageResult {
	ctx = logger.WithFields(ctx, logger.Fields{logger.FieldImage: sub.FileName})
	res := ImageResult{FileName: sub.FileName, Stage: StageReceived}

	fail := func(stage Stage, err error) ImageResult {
		res.Stage = stage
		res.Reason = err.Error()
		logger.FromContext(ctx).WithField(logger.FieldStage, string(stage)).WithError(err).Warn("Image failed")
		return res
	}

	obj, err := s.blobs.Store(ctx, sub.FileName, sub.Data)
	if err != nil {
		return fail(StageUploadFailed, err)
	}
	res.Stage = StageUploaded

	prov := domain.Provenance{
		FileName: obj.Path,
		FileSize: int64(len(sub.Data)),
		ImageURL: obj.URL,
	}

	tensor, err := s.pre.Process(sub.Data)
	if err != nil {
		return fail(StagePreprocessFailed, err)
	}
	res.Stage = StagePreprocessed

	decision, err := s.decide(ctx, tensor)
	if err != nil {
		return fail(StageClassifyFailed, err)
	}
	res.Stage = StageClassified

	rec, err := s.builder.Build(prov, decision)
	if err != nil {
		// Out-of-contract decision values are an engine bug.
		return fail(StageClassifyFailed, err)
	}

	if err := s.gateway.Append(ctx, rec); err != nil {
		return fail(StagePersistFailed, err)
	}

	res.Stage = StagePersisted
	res.Record = rec
	return res
}

// decide runs the classifier, or falls back to the explicit unavailable
// placeholder when degraded mode permits it.
func (s *PipelineService) decide(ctx context.Context, tensor []float32) (domain.Decision, error) {
	if s.classifier == nil {
		if !s.degraded {
			return domain.Decision{}, domain.ErrModelUnavailable
		}
		logger.CtxWarn(ctx, "Classification disabled, persisting placeholder decision")
		return domain.Unavailable(), nil
	}

	decision, err := s.classifier.Classify(ctx, tensor)
	if err != nil {
		if s.degraded && errors.Is(err, domain.ErrModelUnavailable) {
			logger.FromContext(ctx).WithError(err).Warn("Model unavailable, persisting placeholder decision")
			return domain.Unavailable(), nil
		}
		return domain.Decision{}, err
	}
	return decision, nil
}

// List returns every stored record, most recent first, with image URLs
// refreshed from the blob store since stored locators can expire.
func (s *PipelineService) List(ctx context.Context) ([]domain.PredictionRecord, error) {
	records, err := s.gateway.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].FileName != "" {
			records[i].ImageURL = s.blobs.URL(records[i].FileName)
		}
	}
	return records, nil
}

// ClearAll removes every stored record and returns the deleted count.
func (s *PipelineService) ClearAll(ctx context.Context) (int64, error) {
	return s.gateway.ClearAll(ctx)
}
