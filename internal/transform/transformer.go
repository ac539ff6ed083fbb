// Package transform applies an audio effect to a local file through one of
// the supported backends: a local ffmpeg binary or a remote media API.
package transform

import (
	"context"

	"voicefx-bot/internal/effects"
)

// Transformer turns the audio at inputPath into transformed audio at
// outputPath. One attempt per call; callers treat any error as terminal for
// the job. Implementations resolve unknown effect names through the catalog
// fallback, they never reject them.
type Transformer interface {
	Apply(ctx context.Context, inputPath, outputPath string, effect effects.Effect) error
}
