package aspects

import (
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/logger"
)

// skillsPenalty weighs certification evidence inferred from skills against an actual certificate.
const skillsPenalty = 0.5

// Comparators holds the eight aspect comparators sharing one oracle.
type Comparators struct {
	judge *judge
}

type Option func(*judge)

// WithTimeout bounds every single oracle call.
func WithTimeout(d time.Duration) Option {
	return func(j *judge) {
		if d > 0 {
			j.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(j *judge) {
		j.logger = logger.WithFields(l)
	}
}

// New builds the comparators. A nil oracle behaves like ai.Unavailable.
func New(oracle ai.Oracle, opts ...Option) *Comparators {
	if oracle == nil {
		oracle = ai.Unavailable{}
	}

	j := &judge{
		oracle:  oracle,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(j)
	}

	return &Comparators{judge: j}
}
