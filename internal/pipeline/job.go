// Package pipeline orchestrates one voice transform job: download the
// attachment, apply the effect, deliver the result, clean up. Temp files and
// the user's pending effect are released on every exit path.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"voicefx-bot/internal/effects"
	"voicefx-bot/internal/session"
	"voicefx-bot/internal/transform"
)

// Stage names the pipeline step a job failed in.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageTransform Stage = "transform"
	StageDeliver   Stage = "deliver"
)

// StageError wraps a job failure with the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Fetcher resolves a platform file reference and streams its bytes to a
// local path.
type Fetcher interface {
	Fetch(ctx context.Context, sourceRef, destPath string) error
}

// Deliverer sends a local audio file as a voice message to a chat.
type Deliverer interface {
	DeliverVoice(ctx context.Context, target int64, path string) error
}

// Job describes one voice attachment to transform.
type Job struct {
	UserID      int64
	SourceRef   string
	Effect      effects.Effect
	ReplyTarget int64
}

// Pipeline runs transform jobs. Safe for concurrent use; jobs share nothing
// but the session store.
type Pipeline struct {
	tempDir     string
	fetcher     Fetcher
	transformer transform.Transformer
	deliverer   Deliverer
	sessions    session.Store

	inflight sync.WaitGroup
}

// New creates a pipeline and ensures the temp directory exists.
func New(tempDir string, fetcher Fetcher, transformer transform.Transformer, deliverer Deliverer, sessions session.Store) (*Pipeline, error) {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &Pipeline{
		tempDir:     tempDir,
		fetcher:     fetcher,
		transformer: transformer,
		deliverer:   deliverer,
		sessions:    sessions,
	}, nil
}

// Run executes one job to completion. On any failure the returned error
// carries the failed stage; cleanup has already happened by the time Run
// returns. The user's pending effect is cleared whether or not the job
// succeeded, so a broken attachment cannot wedge the session.
func (p *Pipeline) Run(ctx context.Context, job Job) error {
	p.inflight.Add(1)
	defer p.inflight.Done()

	inputPath, outputPath := p.jobPaths(job)

	defer func() {
		removeIfPresent(inputPath)
		removeIfPresent(outputPath)
		if err := p.sessions.Clear(job.UserID); err != nil {
			log.Warnf("Failed to clear session for user %d: %v", job.UserID, err)
		}
	}()

	if err := p.fetcher.Fetch(ctx, job.SourceRef, inputPath); err != nil {
		return &StageError{Stage: StageFetch, Err: err}
	}

	if err := p.transformer.Apply(ctx, inputPath, outputPath, job.Effect); err != nil {
		return &StageError{Stage: StageTransform, Err: err}
	}

	if err := p.deliverer.DeliverVoice(ctx, job.ReplyTarget, outputPath); err != nil {
		return &StageError{Stage: StageDeliver, Err: err}
	}

	log.Infof("Transform job completed: user=%d effect=%s", job.UserID, job.Effect)
	return nil
}

// Drain blocks until all in-flight jobs have finished cleanup.
func (p *Pipeline) Drain() {
	p.inflight.Wait()
}

// jobPaths derives unique per-job file names from the attachment reference
// and the current time so concurrent jobs never collide.
func (p *Pipeline) jobPaths(job Job) (inputPath, outputPath string) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeRef(job.SourceRef))
	inputPath = filepath.Join(p.tempDir, name+".oga")
	outputPath = filepath.Join(p.tempDir, "processed_"+name+".ogg")
	return inputPath, outputPath
}

func sanitizeRef(ref string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, ref)
}

func removeIfPresent(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to remove temp file %s: %v", path, err)
	}
}
