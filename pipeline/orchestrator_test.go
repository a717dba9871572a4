package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skillsenselab/clipwise/diarization"
	"github.com/skillsenselab/clipwise/errors"
	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/media"
	"github.com/skillsenselab/clipwise/segment"
	"github.com/skillsenselab/clipwise/sink"
	"github.com/skillsenselab/clipwise/storage/local"
	"github.com/skillsenselab/clipwise/transcription"
)

// --- fakes ---

type fakeExtractor struct {
	chunks []media.Chunk
	err    error
}

func (f *fakeExtractor) ExtractAudio(_ context.Context, videoPath, outDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return filepath.Join(outDir, "audio.wav"), nil
}

func (f *fakeExtractor) SplitAudio(_ context.Context, audioPath, _ string, _ time.Duration) ([]media.Chunk, error) {
	if len(f.chunks) > 0 {
		return f.chunks, nil
	}
	return []media.Chunk{{Path: audioPath, Index: 0, Offset: 0, End: 30 * time.Second}}, nil
}

type fakeTranscriber struct {
	mu        sync.Mutex
	responses map[string]*transcription.TranscriptionResponse
	err       error
	calls     int
}

func (f *fakeTranscriber) Name() string                          { return "fake" }
func (f *fakeTranscriber) IsAvailable(_ context.Context) bool    { return true }
func (f *fakeTranscriber) Transcribe(_ context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	// The per-job work dir embeds a random job ID, so fall back to matching
	// on the base name.
	resp, ok := f.responses[req.AudioPath]
	if !ok {
		resp, ok = f.responses[filepath.Base(req.AudioPath)]
	}
	if !ok {
		return nil, fmt.Errorf("no transcript for %s", req.AudioPath)
	}
	return resp, nil
}

type fakePlanner struct {
	mu      sync.Mutex
	windows []segment.Window
	got     []segment.Word
}

func (f *fakePlanner) Plan(words []segment.Word) ([]segment.Window, error) {
	f.mu.Lock()
	f.got = append([]segment.Word(nil), words...)
	f.mu.Unlock()
	if len(f.windows) > 0 {
		return f.windows, nil
	}
	if len(words) == 0 {
		return nil, errors.InvalidInput("words", "empty transcript")
	}
	return []segment.Window{{
		Words: words,
		Text:  "whole transcript",
		Start: words[0].Start,
		End:   words[len(words)-1].End,
	}}, nil
}

type fakeSegmenter struct {
	mu    sync.Mutex
	raws  map[int][]segment.RawSegment
	errs  map[int]error
	calls int
}

func (f *fakeSegmenter) Segment(_ context.Context, index int, _ segment.Window, _ float64) ([]segment.RawSegment, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err, ok := f.errs[index]; ok {
		return nil, err
	}
	return f.raws[index], nil
}

type fakeDiarizer struct {
	turns []diarization.Turn
	err   error
}

func (f *fakeDiarizer) Name() string                       { return "fake" }
func (f *fakeDiarizer) IsAvailable(_ context.Context) bool { return true }
func (f *fakeDiarizer) Diarize(_ context.Context, _ diarization.DiarizationRequest) (*diarization.DiarizationResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &diarization.DiarizationResponse{Turns: f.turns, SpeakerCount: 2}, nil
}

type memorySink struct {
	mu      sync.Mutex
	results []sink.Result
}

func (m *memorySink) Persist(_ context.Context, res sink.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, res)
	return nil
}

func (m *memorySink) last(t *testing.T) sink.Result {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.results) == 0 {
		t.Fatal("nothing persisted")
	}
	return m.results[len(m.results)-1]
}

// --- helpers ---

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"}, "pipeline-test")
}

func wordsInRange(start, end, step float64) []segment.Word {
	var words []segment.Word
	for t := start; t < end; t += step {
		words = append(words, segment.Word{Text: "word", Start: t, End: t + step/2})
	}
	return words
}

func windowFor(words []segment.Word, start, end float64) segment.Window {
	return segment.Window{Words: words, Text: "text", Start: start, End: end}
}

type harness struct {
	store       *local.Storage
	extractor   *fakeExtractor
	transcriber *fakeTranscriber
	planner     *fakePlanner
	segmenter   *fakeSegmenter
	reconciler  *segment.Reconciler
	sink        *memorySink
	workDir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	if err := store.Upload(context.Background(), "uploads/talk.mp4", strings.NewReader("not-really-a-video")); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return &harness{
		store:       store,
		extractor:   &fakeExtractor{},
		transcriber: &fakeTranscriber{responses: map[string]*transcription.TranscriptionResponse{}},
		planner:     &fakePlanner{},
		segmenter:   &fakeSegmenter{raws: map[int][]segment.RawSegment{}, errs: map[int]error{}},
		reconciler:  segment.NewReconciler(segment.ReconcilerConfig{}, testLogger()),
		sink:        &memorySink{},
		workDir:     t.TempDir(),
	}
}

func (h *harness) orchestrator() *Orchestrator {
	return NewOrchestrator(
		Config{WorkDir: h.workDir},
		h.store,
		h.extractor,
		h.transcriber,
		h.planner,
		h.segmenter,
		h.reconciler,
		h.sink,
		nil,
		testLogger(),
	)
}

func (h *harness) run(t *testing.T) (*sink.Result, error) {
	t.Helper()
	return h.orchestrator().Run(context.Background(), VideoRef{
		Bucket:      "videos",
		Path:        "uploads/talk.mp4",
		ContentType: "video/mp4",
		Size:        1 << 20,
	})
}

// transcriptFor registers the fake transcript for the single default chunk.
func (h *harness) transcriptFor(t *testing.T, text string, words []segment.Word) {
	t.Helper()
	tw := make([]transcription.Word, len(words))
	for i, w := range words {
		tw[i] = transcription.Word{Text: w.Text, Start: w.Start, End: w.End}
	}
	// Base name of fakeExtractor.ExtractAudio output.
	h.transcriber.responses["audio.wav"] = &transcription.TranscriptionResponse{
		Text:  text,
		Words: tw,
	}
}

// --- tests ---

func TestVideoRef_VideoID(t *testing.T) {
	ref := VideoRef{Path: "uploads/course-101/talk.mp4"}
	if got := ref.VideoID(); got != "talk" {
		t.Fatalf("VideoID = %q, want %q", got, "talk")
	}
	ref = VideoRef{Path: "uploads/noext"}
	if got := ref.VideoID(); got != "noext" {
		t.Fatalf("VideoID = %q, want %q", got, "noext")
	}
}

func TestRun_SingleWindowVideo(t *testing.T) {
	h := newHarness(t)
	words := wordsInRange(0, 30, 3)
	h.transcriptFor(t, "a short talk about introductions", words)
	h.segmenter.raws[0] = []segment.RawSegment{
		{Start: 0, End: 30, Topic: "intro", Summary: "speaker introduces the talk", IsFiller: false},
	}

	res, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.VideoID != "talk" {
		t.Errorf("VideoID = %q, want %q", res.VideoID, "talk")
	}
	if len(res.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(res.Segments))
	}
	seg := res.Segments[0]
	if seg.Start != 0 || seg.End != 30 || seg.Topic != "intro" || seg.IsFiller {
		t.Errorf("unexpected segment: %+v", seg)
	}
	if res.Report.TotalWindows != 1 || len(res.Report.FailedWindows) != 0 || res.Report.SegmentCount != 1 {
		t.Errorf("unexpected report: %+v", res.Report)
	}
	if !res.Report.Complete() {
		t.Error("report should be complete")
	}

	persisted := h.sink.last(t)
	if persisted.Transcript != "a short talk about introductions" {
		t.Errorf("persisted transcript = %q", persisted.Transcript)
	}
}

func TestRun_OverlappingWindowsMergeSameTopic(t *testing.T) {
	h := newHarness(t)
	words := wordsInRange(0, 1800, 2)
	h.transcriptFor(t, "long recording", words)
	h.planner.windows = []segment.Window{
		windowFor(words[:500], 0, 1000),
		windowFor(words[425:], 850, 1800),
	}
	h.segmenter.raws[0] = []segment.RawSegment{
		{Start: 900, End: 1000, Topic: "outro-teaser", Summary: "wraps up"},
	}
	h.segmenter.raws[1] = []segment.RawSegment{
		{Start: 850, End: 950, Topic: "outro-teaser", Summary: "wraps up the topic"},
	}

	res, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Segments) != 1 {
		t.Fatalf("got %d segments, want 1 merged: %+v", len(res.Segments), res.Segments)
	}
	seg := res.Segments[0]
	if seg.Start != 850 || seg.End != 1000 {
		t.Errorf("merged span = [%v,%v], want [850,1000]", seg.Start, seg.End)
	}
	if seg.Summary != "wraps up the topic wraps up" {
		t.Errorf("merged summary = %q", seg.Summary)
	}
}

func TestRun_OverlappingWindowsSplitDifferentTopics(t *testing.T) {
	h := newHarness(t)
	words := wordsInRange(0, 1800, 2)
	h.transcriptFor(t, "long recording", words)
	h.planner.windows = []segment.Window{
		windowFor(words[:500], 0, 1000),
		windowFor(words[425:], 850, 1800),
	}
	h.segmenter.raws[0] = []segment.RawSegment{
		{Start: 900, End: 1000, Topic: "outro-teaser", Summary: "teases the next video"},
	}
	h.segmenter.raws[1] = []segment.RawSegment{
		{Start: 850, End: 950, Topic: "ad-break", Summary: "sponsor message", IsFiller: true},
	}

	res, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(res.Segments), res.Segments)
	}
	first, second := res.Segments[0], res.Segments[1]
	if first.Topic != "ad-break" || first.Start != 850 || first.End != 925 {
		t.Errorf("first = %+v, want ad-break [850,925]", first)
	}
	if !first.IsFiller {
		t.Error("ad-break should stay filler")
	}
	if second.Topic != "outro-teaser" || second.Start != 925 || second.End != 1000 {
		t.Errorf("second = %+v, want outro-teaser [925,1000]", second)
	}
}

func TestRun_FailedWindowIsRecordedNotFatal(t *testing.T) {
	h := newHarness(t)
	words := wordsInRange(0, 1800, 2)
	h.transcriptFor(t, "long recording", words)
	h.planner.windows = []segment.Window{
		windowFor(words[:500], 0, 1000),
		windowFor(words[425:], 850, 1800),
	}
	h.segmenter.errs[0] = errors.OracleRateLimited()
	h.segmenter.raws[1] = []segment.RawSegment{
		{Start: 850, End: 1800, Topic: "deep-dive", Summary: "the main content"},
	}

	res, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Report.TotalWindows != 2 {
		t.Errorf("TotalWindows = %d, want 2", res.Report.TotalWindows)
	}
	if len(res.Report.FailedWindows) != 1 {
		t.Fatalf("FailedWindows = %+v, want one entry", res.Report.FailedWindows)
	}
	failure := res.Report.FailedWindows[0]
	if failure.Index != 0 || failure.Start != 0 || failure.End != 1000 {
		t.Errorf("failure = %+v", failure)
	}
	if !strings.Contains(failure.Error, string(errors.ErrCodeOracleRateLimited)) {
		t.Errorf("failure error %q missing code", failure.Error)
	}
	if res.Report.Complete() {
		t.Error("report should be incomplete")
	}
	if len(res.Segments) != 1 || res.Segments[0].Topic != "deep-dive" {
		t.Errorf("segments = %+v", res.Segments)
	}
}

func TestRun_AllWindowsFailedIsFatal(t *testing.T) {
	h := newHarness(t)
	words := wordsInRange(0, 1800, 2)
	h.transcriptFor(t, "long recording", words)
	h.planner.windows = []segment.Window{
		windowFor(words[:500], 0, 1000),
		windowFor(words[425:], 850, 1800),
	}
	h.segmenter.errs[0] = errors.OracleRateLimited()
	h.segmenter.errs[1] = errors.OracleEmpty()

	_, err := h.run(t)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.CodeOf(err) != errors.ErrCodeAllWindowsFailed {
		t.Errorf("code = %v, want %v", errors.CodeOf(err), errors.ErrCodeAllWindowsFailed)
	}
	if len(h.sink.results) != 0 {
		t.Error("nothing should be persisted when every window fails")
	}
}

func TestRun_TranscriptionFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.transcriber.err = fmt.Errorf("sidecar is down")

	_, err := h.run(t)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.CodeOf(err) != errors.ErrCodeTranscriptionFailed {
		t.Errorf("code = %v, want %v", errors.CodeOf(err), errors.ErrCodeTranscriptionFailed)
	}
	if len(h.sink.results) != 0 {
		t.Error("nothing should be persisted on transcription failure")
	}
}

func TestRun_ChunkWordsOffsetAndSorted(t *testing.T) {
	h := newHarness(t)
	h.extractor.chunks = []media.Chunk{
		{Path: "/chunks/chunk_000.wav", Index: 0, Offset: 0, End: 600 * time.Second},
		{Path: "/chunks/chunk_001.wav", Index: 1, Offset: 600 * time.Second, End: 1150 * time.Second},
	}
	h.transcriber.responses["/chunks/chunk_000.wav"] = &transcription.TranscriptionResponse{
		Text: "first chunk",
		Words: []transcription.Word{
			{Text: "hello", Start: 1, End: 1.5},
			{Text: "there", Start: 599, End: 599.4},
		},
	}
	h.transcriber.responses["/chunks/chunk_001.wav"] = &transcription.TranscriptionResponse{
		Text: "second chunk",
		Words: []transcription.Word{
			{Text: "again", Start: 0.2, End: 0.7},
			{Text: "goodbye", Start: 549, End: 549.5},
		},
	}
	h.segmenter.raws[0] = []segment.RawSegment{
		{Start: 0, End: 1150, Topic: "all", Summary: "everything"},
	}

	res, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := h.planner.got
	if len(got) != 4 {
		t.Fatalf("planner saw %d words, want 4", len(got))
	}
	wantStarts := []float64{1, 599, 600.2, 1149}
	for i, want := range wantStarts {
		if got[i].Start != want {
			t.Errorf("word[%d].Start = %v, want %v", i, got[i].Start, want)
		}
	}
	if got[2].Text != "again" {
		t.Errorf("word[2] = %q, want %q", got[2].Text, "again")
	}
	if res.Transcript != "first chunk second chunk" {
		t.Errorf("transcript = %q", res.Transcript)
	}
}

func TestRun_WorkDirRemovedOnSuccessAndFailure(t *testing.T) {
	h := newHarness(t)
	words := wordsInRange(0, 30, 3)
	h.transcriptFor(t, "short", words)
	h.segmenter.raws[0] = []segment.RawSegment{
		{Start: 0, End: 30, Topic: "intro", Summary: "hello"},
	}

	if _, err := h.run(t); err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertNoScratchDirs(t, h.workDir)

	h.segmenter.errs[0] = errors.OracleEmpty()
	h.planner.windows = nil
	if _, err := h.run(t); err == nil {
		t.Fatal("expected failure")
	}
	assertNoScratchDirs(t, h.workDir)
}

func assertNoScratchDirs(t *testing.T, workDir string) {
	t.Helper()
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "clipwise-") {
			t.Errorf("scratch dir %s left behind", e.Name())
		}
	}
}

func TestRun_DiarizationPersistsSpeakers(t *testing.T) {
	h := newHarness(t)
	words := wordsInRange(0, 30, 3)
	h.transcriptFor(t, "two people talking", words)
	h.segmenter.raws[0] = []segment.RawSegment{
		{Start: 0, End: 30, Topic: "chat", Summary: "a conversation"},
	}
	turns := []diarization.Turn{
		{Speaker: "SPEAKER_00", Start: 0, End: 14},
		{Speaker: "SPEAKER_01", Start: 14, End: 30},
	}

	res, err := h.orchestrator().WithDiarizer(&fakeDiarizer{turns: turns}).
		Run(context.Background(), VideoRef{Path: "uploads/talk.mp4", ContentType: "video/mp4"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Speakers) != 2 {
		t.Fatalf("got %d speaker turns, want 2", len(res.Speakers))
	}
	if res.Speakers[1].Speaker != "SPEAKER_01" {
		t.Errorf("unexpected turn %+v", res.Speakers[1])
	}
	if persisted := h.sink.last(t); len(persisted.Speakers) != 2 {
		t.Errorf("persisted %d speaker turns, want 2", len(persisted.Speakers))
	}
}

func TestRun_DiarizationFailureDoesNotFailJob(t *testing.T) {
	h := newHarness(t)
	words := wordsInRange(0, 30, 3)
	h.transcriptFor(t, "short talk", words)
	h.segmenter.raws[0] = []segment.RawSegment{
		{Start: 0, End: 30, Topic: "intro", Summary: "hello"},
	}

	res, err := h.orchestrator().WithDiarizer(&fakeDiarizer{err: fmt.Errorf("sidecar is down")}).
		Run(context.Background(), VideoRef{Path: "uploads/talk.mp4", ContentType: "video/mp4"})
	if err != nil {
		t.Fatalf("Run should degrade, got: %v", err)
	}
	if len(res.Speakers) != 0 {
		t.Errorf("speakers = %+v, want none", res.Speakers)
	}
	if len(res.Segments) != 1 {
		t.Errorf("segments = %+v", res.Segments)
	}
}

func TestRun_PersistsThroughStorageSink(t *testing.T) {
	h := newHarness(t)
	words := wordsInRange(0, 30, 3)
	h.transcriptFor(t, "short talk", words)
	h.segmenter.raws[0] = []segment.RawSegment{
		{Start: 0, End: 30, Topic: "intro", Summary: "hello"},
	}

	o := NewOrchestrator(
		Config{WorkDir: h.workDir},
		h.store, h.extractor, h.transcriber, h.planner, h.segmenter, h.reconciler,
		sink.NewStorageSink(h.store),
		nil, testLogger(),
	)
	if _, err := o.Run(context.Background(), VideoRef{Path: "uploads/talk.mp4", ContentType: "video/mp4"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, obj := range []string{
		"results/talk/transcript.txt",
		"results/talk/segments.json",
		"results/talk/report.json",
	} {
		ok, err := h.store.Exists(context.Background(), obj)
		if err != nil {
			t.Fatalf("Exists(%s): %v", obj, err)
		}
		if !ok {
			t.Errorf("missing artifact %s", obj)
		}
	}
}
