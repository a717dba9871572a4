package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/clipwise/diarization"
	"github.com/skillsenselab/clipwise/errors"
	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/media"
	"github.com/skillsenselab/clipwise/observability"
	"github.com/skillsenselab/clipwise/segment"
	"github.com/skillsenselab/clipwise/sink"
	"github.com/skillsenselab/clipwise/storage"
	"github.com/skillsenselab/clipwise/transcription"
)

// --- collaborator interfaces ---

// AudioExtractor extracts and splits audio from a downloaded video.
// *media.Extractor is the production implementation.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, outDir string) (string, error)
	SplitAudio(ctx context.Context, audioPath, outDir string, chunkDuration time.Duration) ([]media.Chunk, error)
}

// WindowPlanner turns a word timeline into token-budgeted windows.
type WindowPlanner interface {
	Plan(words []segment.Word) ([]segment.Window, error)
}

// WindowSegmenter segments one window via the oracle, retries included.
type WindowSegmenter interface {
	Segment(ctx context.Context, index int, w segment.Window, totalDurationSec float64) ([]segment.RawSegment, error)
}

// --- configuration ---

// Config holds orchestrator tuning knobs.
type Config struct {
	// WorkDir is the parent directory for per-job scratch space.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
	// ChunkDuration is the audio chunk length for transcription.
	ChunkDuration time.Duration `yaml:"chunk_duration" mapstructure:"chunk_duration"`
	// TranscriptionWorkers bounds concurrent chunk transcriptions.
	TranscriptionWorkers int `yaml:"transcription_workers" mapstructure:"transcription_workers" validate:"omitempty,min=1,max=8"`
	// OracleWorkers bounds concurrent oracle segmentation calls.
	OracleWorkers int `yaml:"oracle_workers" mapstructure:"oracle_workers" validate:"omitempty,min=1,max=8"`
	// OracleRate is the aggregate oracle call rate in requests per second.
	OracleRate float64 `yaml:"oracle_rate" mapstructure:"oracle_rate"`
	// JobTimeout bounds a whole run. Negative disables the deadline.
	JobTimeout time.Duration `yaml:"job_timeout" mapstructure:"job_timeout"`
}

// ApplyDefaults fills zero fields with production defaults.
func (c *Config) ApplyDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = os.TempDir()
	}
	if c.ChunkDuration <= 0 {
		c.ChunkDuration = media.DefaultChunkDuration
	}
	if c.TranscriptionWorkers <= 0 {
		c.TranscriptionWorkers = 3
	}
	if c.OracleWorkers <= 0 {
		c.OracleWorkers = 3
	}
	if c.OracleRate <= 0 {
		c.OracleRate = 2.0
	}
	if c.JobTimeout == 0 {
		c.JobTimeout = 30 * time.Minute
	}
}

// --- orchestrator ---

// Orchestrator runs the full segmentation pipeline for one video at a time
// per call. Run is safe for concurrent use; each call gets an isolated job.
type Orchestrator struct {
	cfg Config

	store       storage.Storage
	extractor   AudioExtractor
	transcriber transcription.Provider
	planner     WindowPlanner
	segmenter   WindowSegmenter
	reconciler  *segment.Reconciler
	results     sink.Sink
	diarizer    diarization.Provider

	oracleGate    *resilienceGate
	metrics       *observability.PipelineMetrics
	log           *logger.Logger
	coverageSlack float64
}

// NewOrchestrator wires the pipeline stages together. metrics may be nil.
func NewOrchestrator(
	cfg Config,
	store storage.Storage,
	extractor AudioExtractor,
	transcriber transcription.Provider,
	planner WindowPlanner,
	segmenter WindowSegmenter,
	reconciler *segment.Reconciler,
	results sink.Sink,
	metrics *observability.PipelineMetrics,
	log *logger.Logger,
) *Orchestrator {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Orchestrator{
		cfg:           cfg,
		store:         store,
		extractor:     extractor,
		transcriber:   transcriber,
		planner:       planner,
		segmenter:     segmenter,
		reconciler:    reconciler,
		results:       results,
		oracleGate:    newResilienceGate(cfg.OracleWorkers, cfg.OracleRate),
		metrics:       metrics,
		log:           log.WithComponent("orchestrator"),
		coverageSlack: 5.0,
	}
}

// WithDiarizer attaches an optional speaker diarization provider. Diarization
// runs concurrently with transcription; its failure never fails the job.
func (o *Orchestrator) WithDiarizer(d diarization.Provider) *Orchestrator {
	o.diarizer = d
	return o
}

// Run processes one uploaded video end to end and returns the persisted
// result. Any returned error is terminal for the job; the caller decides
// whether to re-enqueue the video.
func (o *Orchestrator) Run(ctx context.Context, ref VideoRef) (*sink.Result, error) {
	if o.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.JobTimeout)
		defer cancel()
	}

	job := &Job{ID: uuid.NewString(), Video: ref, State: StateDownloading}
	log := o.log.WithVideo(ref.VideoID()).WithFields(map[string]interface{}{
		logger.FieldJobID: job.ID,
	})
	log.Info("pipeline run starting", map[string]interface{}{
		"path":       ref.Path,
		"size_bytes": ref.Size,
	})

	ctx, span := observability.StartSpan(ctx, "pipeline.run")
	defer span.End()

	o.metrics.RecordJobStart(ctx)
	status := "failed"
	defer func() { o.metrics.RecordJobEnd(ctx, status) }()

	workDir := filepath.Join(o.cfg.WorkDir, "clipwise-"+job.ID)
	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return nil, o.fail(ctx, job, log, errors.Internal(err).WithDetail("work_dir", workDir))
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("work dir cleanup failed", logger.ErrorFields("cleanup", err))
		}
	}()

	// Downloading
	videoPath := filepath.Join(workDir, filepath.Base(ref.Path))
	stage := time.Now()
	if err := storage.DownloadToFile(ctx, o.store, ref.Path, videoPath); err != nil {
		o.metrics.RecordStage(ctx, string(StateDownloading), "failed", time.Since(stage))
		return nil, o.fail(ctx, job, log, errors.ExtractionFailed(ref.Path, err).WithDetail("stage", "download"))
	}
	o.metrics.RecordStage(ctx, string(StateDownloading), "ok", time.Since(stage))

	// ExtractingAudio
	job.transition(StateExtractingAudio, log)
	stage = time.Now()
	audioPath, err := o.extractor.ExtractAudio(ctx, videoPath, workDir)
	if err != nil {
		o.metrics.RecordStage(ctx, string(StateExtractingAudio), "failed", time.Since(stage))
		return nil, o.fail(ctx, job, log, errors.ExtractionFailed(videoPath, err))
	}
	chunks, err := o.extractor.SplitAudio(ctx, audioPath, workDir, o.cfg.ChunkDuration)
	if err != nil || len(chunks) == 0 {
		o.metrics.RecordStage(ctx, string(StateExtractingAudio), "failed", time.Since(stage))
		return nil, o.fail(ctx, job, log, errors.ExtractionFailed(audioPath, err).WithDetail("stage", "split"))
	}
	o.metrics.RecordStage(ctx, string(StateExtractingAudio), "ok", time.Since(stage))
	totalDuration := chunks[len(chunks)-1].End.Seconds()

	// Transcribing, with diarization riding alongside when configured
	job.transition(StateTranscribing, log)
	speakerCh := o.startDiarization(ctx, audioPath, log)
	stage = time.Now()
	words, transcript, err := o.transcribeChunks(ctx, chunks, log)
	speakers := awaitSpeakers(speakerCh)
	if err != nil {
		o.metrics.RecordStage(ctx, string(StateTranscribing), "failed", time.Since(stage))
		return nil, o.fail(ctx, job, log, err)
	}
	o.metrics.RecordStage(ctx, string(StateTranscribing), "ok", time.Since(stage))
	log.Info("transcription complete", map[string]interface{}{
		"chunks":       len(chunks),
		"words":        len(words),
		"duration_sec": totalDuration,
	})

	// Planning
	job.transition(StatePlanning, log)
	windows, err := o.planner.Plan(words)
	if err != nil {
		return nil, o.fail(ctx, job, log, err)
	}

	// Segmenting
	job.transition(StateSegmenting, log)
	stage = time.Now()
	raws, failures := o.segmentWindows(ctx, windows, totalDuration, log)
	o.metrics.RecordWindows(ctx, len(windows), len(failures))
	if len(failures) == len(windows) {
		o.metrics.RecordStage(ctx, string(StateSegmenting), "failed", time.Since(stage))
		return nil, o.fail(ctx, job, log, errors.AllWindowsFailed(len(windows)))
	}
	o.metrics.RecordStage(ctx, string(StateSegmenting), "ok", time.Since(stage))

	// Reconciling
	job.transition(StateReconciling, log)
	segments := o.reconciler.Reconcile(raws)
	o.metrics.RecordSegments(ctx, len(segments))
	o.checkCoverage(segments, totalDuration, log)

	report := segment.Report{
		TotalWindows:  len(windows),
		FailedWindows: failures,
		SegmentCount:  len(segments),
	}

	// Persisting
	job.transition(StatePersisting, log)
	result := &sink.Result{
		VideoID:     ref.VideoID(),
		Transcript:  transcript,
		Segments:    segments,
		Report:      report,
		CompletedAt: time.Now().UTC(),
		Speakers:    speakers,
	}
	if err := o.results.Persist(ctx, *result); err != nil {
		return nil, o.fail(ctx, job, log, err)
	}

	job.transition(StateDone, log)
	status = "done"
	log.Info("pipeline run complete", map[string]interface{}{
		"segments":       len(segments),
		"windows":        len(windows),
		"failed_windows": len(failures),
	})
	return result, nil
}

// startDiarization kicks off speaker diarization in the background and
// returns the channel the turns arrive on, or nil when no diarizer is
// configured. Errors degrade to a nil turn list.
func (o *Orchestrator) startDiarization(ctx context.Context, audioPath string, log *logger.Logger) <-chan []diarization.Turn {
	if o.diarizer == nil {
		return nil
	}
	ch := make(chan []diarization.Turn, 1)
	go func() {
		resp, err := o.diarizer.Diarize(ctx, diarization.DiarizationRequest{AudioPath: audioPath})
		if err != nil {
			log.Warn("diarization failed, continuing without speakers", logger.ErrorFields("diarize", err))
			ch <- nil
			return
		}
		log.Info("diarization complete", map[string]interface{}{
			"speakers": resp.SpeakerCount,
			"turns":    len(resp.Turns),
		})
		ch <- resp.Turns
	}()
	return ch
}

// awaitSpeakers joins the diarization goroutine. Called before any early
// return past transcription so the goroutine never outlives the work dir.
func awaitSpeakers(ch <-chan []diarization.Turn) []diarization.Turn {
	if ch == nil {
		return nil
	}
	return <-ch
}

// fail marks the job failed, records the error on the active span, and
// returns err for the caller.
func (o *Orchestrator) fail(ctx context.Context, job *Job, log *logger.Logger, err error) error {
	job.transition(StateFailed, log)
	observability.SetSpanError(ctx, err)
	log.Error("pipeline run failed", logger.ErrorFields(string(job.State), err))
	return err
}

// checkCoverage warns when the reconciled timeline leaves a hole at either
// end of the video beyond the allowed slack.
func (o *Orchestrator) checkCoverage(segments []segment.Segment, totalDuration float64, log *logger.Logger) {
	if len(segments) == 0 {
		log.Warn("reconciliation produced no segments")
		return
	}
	head := segments[0].Start
	tail := totalDuration - segments[len(segments)-1].End
	if head > o.coverageSlack || tail > o.coverageSlack {
		log.Warn("segment timeline does not cover full video", map[string]interface{}{
			"leading_gap_sec":  head,
			"trailing_gap_sec": tail,
		})
	}
}
