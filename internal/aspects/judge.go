package aspects

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/logger"
)

const (
	DefaultTimeout = 45 * time.Second
	oracleError    = "oracle error"
)

// judge consults the oracle for one comparison. Any failure, including a
// timeout or an unparsable reply, is answered by the fallback heuristic.
type judge struct {
	oracle  ai.Oracle
	timeout time.Duration
	logger  *zap.Logger
}

func (j *judge) ask(ctx context.Context, req ai.Request, s shape, fallback func() Result) Result {
	req.Schema = s.promptSchema()
	if req.Instructions == "" {
		req.Instructions = instructions(req.Task)
	}

	log := j.logger.With(zap.String(logger.FieldAspect, string(req.Task)))

	res, err := j.call(ctx, req, s)
	if err == nil {
		log.Debug("oracle judgment", zap.Float64("score", res.Score))
		return res
	}

	res = fallback()
	res.Source = SourceFallback
	log.Warn("oracle failed, using fallback",
		zap.Error(err),
		zap.Float64("score", res.Score),
	)

	return res
}

func (j *judge) call(ctx context.Context, req ai.Request, s shape) (Result, error) {
	if j.oracle == nil {
		return Result{}, ai.ErrUnavailable
	}

	callCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	raw, err := j.oracle.Judge(callCtx, req)
	if err != nil {
		return Result{}, err
	}

	return parseReply(raw, s)
}

// narrativeFallback is used by aspects that have no heuristic.
func narrativeFallback() Result {
	return Result{Score: 0, Reason: oracleError}
}
