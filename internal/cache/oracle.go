package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/logger"
)

const keyPrefix = "cv-matcher:judgment:"

type entry struct {
	Reply    string    `json:"reply"`
	StoredAt time.Time `json:"stored_at"`
}

// Oracle wraps another ai.Oracle and memoises its successful replies.
type Oracle struct {
	next      ai.Oracle
	store     Store
	ttl       time.Duration
	namespace string
	valid     func(reply string) bool
	logger    *zap.Logger
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithValidator limits caching to replies accepted by fn. Rejected replies are
// still returned to the caller.
func WithValidator(fn func(reply string) bool) OracleOption {
	return func(o *Oracle) {
		o.valid = fn
	}
}

// NewOracle returns a caching decorator. namespace should identify the
// backend (provider and model) so replies from different models never mix.
func NewOracle(next ai.Oracle, store Store, ttl time.Duration, namespace string, log *zap.Logger, opts ...OracleOption) *Oracle {
	o := &Oracle{
		next:      next,
		store:     store,
		ttl:       ttl,
		namespace: strings.TrimSpace(namespace),
		logger:    logger.WithFields(log),
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Oracle) Judge(ctx context.Context, req ai.Request) (string, error) {
	key := o.key(req)

	var cached entry
	hit, err := o.store.GetJSON(ctx, key, &cached)
	if err != nil {
		o.logger.Debug("cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	if hit && cached.Reply != "" {
		o.logger.Debug("oracle cache hit", zap.String(logger.FieldAspect, string(req.Task)))
		return cached.Reply, nil
	}

	reply, err := o.next.Judge(ctx, req)
	if err != nil {
		return "", err
	}

	if o.valid != nil && !o.valid(reply) {
		o.logger.Debug("not caching unusable reply", zap.String(logger.FieldAspect, string(req.Task)))
		return reply, nil
	}

	if err := o.store.SetJSON(ctx, key, entry{Reply: reply, StoredAt: time.Now().UTC()}, o.ttl); err != nil {
		o.logger.Debug("cache store failed", zap.String("key", key), zap.Error(err))
	}

	return reply, nil
}

func (o *Oracle) key(req ai.Request) string {
	h := sha256.New()
	for _, part := range []string{string(req.Task), req.Instructions, req.Schema, req.Candidate, req.Job} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}

	return keyPrefix + o.namespace + ":" + hex.EncodeToString(h.Sum(nil))
}
