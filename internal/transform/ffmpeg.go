package transform

import (
	"context"
	"fmt"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"voicefx-bot/internal/effects"
)

// FFmpegTransformer applies effects by invoking a local ffmpeg binary with
// the catalog's audio filter graph.
type FFmpegTransformer struct {
	binary string
}

// NewFFmpegTransformer creates an ffmpeg-backed transformer. binary may be a
// bare name resolved through PATH or an absolute path.
func NewFFmpegTransformer(binary string) *FFmpegTransformer {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegTransformer{binary: binary}
}

// Apply runs ffmpeg synchronously. Output is encoded as ogg/opus so Telegram
// accepts it as a voice message.
func (t *FFmpegTransformer) Apply(ctx context.Context, inputPath, outputPath string, effect effects.Effect) error {
	spec := effects.Resolve(effect)

	cmd := exec.CommandContext(ctx, t.binary,
		"-i", inputPath,
		"-y",
		"-af", spec.Filter,
		"-c:a", "libopus",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Errorf("ffmpeg failed for effect %s: %v\n%s", spec.Effect, err, output)
		return fmt.Errorf("ffmpeg conversion failed: %w", err)
	}

	log.Debugf("Applied effect %s: %s -> %s", spec.Effect, inputPath, outputPath)
	return nil
}
