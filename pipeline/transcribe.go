package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/skillsenselab/clipwise/errors"
	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/media"
	"github.com/skillsenselab/clipwise/segment"
	"github.com/skillsenselab/clipwise/transcription"
)

type chunkResult struct {
	index int
	words []segment.Word
	text  string
	err   error
}

// transcribeChunks transcribes every chunk through a bounded worker pool and
// assembles the global word timeline: chunk word timestamps are shifted by
// the chunk offset and the merged list re-sorted by start time. Any chunk
// failure aborts the whole job; a hole in the timeline would silently skew
// every downstream window.
func (o *Orchestrator) transcribeChunks(ctx context.Context, chunks []media.Chunk, log *logger.Logger) ([]segment.Word, string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan media.Chunk)
	results := make(chan chunkResult)

	var wg sync.WaitGroup
	for range o.cfg.TranscriptionWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				results <- o.transcribeOne(ctx, c)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range chunks {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	texts := make([]string, len(chunks))
	var words []segment.Word
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
				cancel()
			}
			continue
		}
		texts[r.index] = r.text
		words = append(words, r.words...)
		log.Debug("chunk transcribed", map[string]interface{}{
			logger.FieldChunk: r.index,
			"words":           len(r.words),
		})
	}
	if firstErr != nil {
		return nil, "", firstErr
	}

	sort.SliceStable(words, func(i, j int) bool { return words[i].Start < words[j].Start })
	return words, joinTexts(texts), nil
}

func (o *Orchestrator) transcribeOne(ctx context.Context, c media.Chunk) chunkResult {
	resp, err := o.transcriber.Transcribe(ctx, transcription.TranscriptionRequest{
		AudioPath:      c.Path,
		WordTimestamps: true,
	})
	if err != nil {
		return chunkResult{index: c.Index, err: errors.TranscriptionFailed(c.Index, err)}
	}

	offset := c.Offset.Seconds()
	words := make([]segment.Word, len(resp.Words))
	for i, w := range resp.Words {
		words[i] = segment.Word{
			Text:  w.Text,
			Start: w.Start + offset,
			End:   w.End + offset,
		}
	}
	return chunkResult{index: c.Index, words: words, text: strings.TrimSpace(resp.Text)}
}

// joinTexts concatenates chunk transcripts in chunk order, skipping empties.
func joinTexts(texts []string) string {
	nonEmpty := texts[:0]
	for _, t := range texts {
		if t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	return strings.Join(nonEmpty, " ")
}
