package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// newCore builds the redacting, sampled core writing to sink.
func newCore(cfg *Config, sink zapcore.WriteSyncer) (zapcore.Core, error) {
	encoder, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
	if err != nil {
		return nil, fmt.Errorf("failed to create redacting encoder: %w", err)
	}

	core := zapcore.NewCore(encoder, sink, cfg.Level)
	return newSampledCore(core, cfg.Sampling), nil
}
