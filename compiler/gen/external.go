package gen

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// externalTimeout bounds one structural generator invocation.
const externalTimeout = 5 * time.Minute

// runExternal invokes the structural generator as a blocking subprocess:
// mirrored JSON in, one structural file per origin out. The generator is
// handed JSON only, never the original schema format.
func runExternal(ctx context.Context, cfg *Config, jsonDir, outDir string) error {
	ctx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()

	args := append([]string{}, cfg.GeneratorArgs...)
	args = append(args, "-input", jsonDir, "-output", outDir, "-package", cfg.Package)

	cmd := exec.CommandContext(ctx, cfg.Generator, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	cfg.logf(2, "[generator] %s %v", cfg.Generator, args)
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("structural generator failed: %w\n%s", err, stderr.String())
		}
		return fmt.Errorf("structural generator failed: %w", err)
	}
	return nil
}
