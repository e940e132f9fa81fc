package ai

import (
	"context"
	"errors"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/utils"
)

const defaultMaxLogLength = 200

// Generator is a text completion backend such as Gemini or an
// OpenAI-compatible endpoint.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// GeneratorOracle renders requests into prompts and forwards them to a Generator.
type GeneratorOracle struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewGeneratorOracle(generator Generator, log *zap.Logger, maxLogLength int) *GeneratorOracle {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &GeneratorOracle{
		generator: generator,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

func (o *GeneratorOracle) Judge(ctx context.Context, req Request) (string, error) {
	if o == nil || o.generator == nil {
		return "", ErrUnavailable
	}

	if req.Candidate == "" && req.Job == "" {
		return "", errors.New("nothing to compare")
	}

	system, message := RenderPrompt(req)

	o.logger.Debug("oracle request",
		zap.String(logger.FieldAspect, string(req.Task)),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, o.maxLogLen)),
	)

	raw, err := o.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return "", err
	}

	o.logger.Debug("oracle response",
		zap.String(logger.FieldAspect, string(req.Task)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, o.maxLogLen)),
	)

	return raw, nil
}
