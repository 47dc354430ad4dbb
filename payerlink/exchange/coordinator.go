package exchange

import (
	"time"

	"github.com/pborman/uuid"

	"github.com/aurelianware/payerlink/conf"
	"github.com/aurelianware/payerlink/payerlink/batchstore"
	"github.com/aurelianware/payerlink/payerlink/client"
	"github.com/aurelianware/payerlink/payerlink/consent"
	"github.com/aurelianware/payerlink/payerlink/matching"
	"github.com/aurelianware/payerlink/payerlink/utils"
)

// Config carries the coordinator tunables.
type Config struct {
	// BatchBaseURI is the object store location batches are written under.
	BatchBaseURI string
	// ExportFailurePct is the tolerated percentage of member fetch
	// failures before an export aborts. Zero means any failure aborts.
	ExportFailurePct float64
	// FetchRetryMax bounds the per-member backend fetch retries.
	FetchRetryMax uint64
}

// LoadConfig resolves the coordinator tunables from the environment.
func LoadConfig() Config {
	return Config{
		BatchBaseURI:     conf.GetEnv("PLX_BATCH_BASE_URI"),
		ExportFailurePct: utils.GetEnvFloat("PLX_EXPORT_FAIL_PCT", 0),
		FetchRetryMax:    uint64(utils.GetEnvInt("PLX_EXPORT_FETCH_RETRIES", 3)),
	}
}

// Coordinator runs batch exports and imports. It holds no per-operation
// state and is safe for concurrent use.
type Coordinator struct {
	backend client.Backend
	store   batchstore.Handler
	gate    *consent.Gate
	matcher *matching.Matcher
	repo    Repository
	cfg     Config

	now   func() time.Time
	newID func() string
}

func NewCoordinator(backend client.Backend, store batchstore.Handler, gate *consent.Gate, matcher *matching.Matcher, repo Repository, cfg Config) *Coordinator {
	return &Coordinator{
		backend: backend,
		store:   store,
		gate:    gate,
		matcher: matcher,
		repo:    repo,
		cfg:     cfg,
		now:     time.Now,
		newID:   func() string { return uuid.NewRandom().String() },
	}
}
