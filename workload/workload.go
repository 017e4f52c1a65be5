// Package workload is a demo TPC-like client load generator, deliberately
// out of the core's scope (spec.md §1) but kept as a collaborator so
// cmd/granola-demo has something to submit against the client driver.
//
// Grounded on FC/benchmark/ycsb.go's YCSBClient: a per-client goroutine that
// draws keys from a Zipfian distribution and mixes reads and updates by a
// configured read fraction, choosing single-shard vs cross-shard
// transactions by a configured percentage. Single-shard transactions use
// Single mode; the cross-shard choice here picks between Independent and
// Coordinated instead of FC's protocol selector.
package workload

import (
	"context"
	"math/rand"

	"github.com/pingcap/go-ycsb/pkg/generator"

	"granola/client"
	"granola/model"
	"granola/transport"
)

// Config shapes the transactions a Client generates.
type Config struct {
	// Repositories is the address of every repository a Client may touch.
	Repositories []transport.Address
	// KeysPerRepository bounds the Zipfian key range drawn for each
	// repository (FC/benchmark/ycsb.go's NumberOfRecordsPerShard).
	KeysPerRepository int64
	// Skew is the Zipfian theta parameter (FC's YCSBDataSkewness).
	Skew float64
	// ReadFraction is the chance a generated operation is a bare Read
	// instead of an Add-and-Update (FC's ReadPercentage).
	ReadFraction float64
	// CrossRepositoryPct is the chance (0-100) a transaction spans every
	// configured repository instead of just one (FC's
	// CrossShardTXNPercentage).
	CrossRepositoryPct int
}

// Client generates and submits one simulated client's transactions.
type Client struct {
	cfg    Config
	driver *client.Driver
	rnd    *rand.Rand
	zipf   *generator.Zipfian
}

// NewClient returns a workload client seeded deterministically, matching
// FC/benchmark/ycsb.go's per-client seed derivation.
func NewClient(cfg Config, driver *client.Driver, seed int64) *Client {
	return &Client{
		cfg:    cfg,
		driver: driver,
		rnd:    rand.New(rand.NewSource(seed)),
		zipf:   generator.NewZipfianWithRange(0, cfg.KeysPerRepository-1, cfg.Skew),
	}
}

func (c *Client) nextKey() model.Key {
	return model.Key(c.zipf.Next(c.rnd))
}

func (c *Client) nextOp() model.Operation {
	key := c.nextKey()
	if c.rnd.Float64() < c.cfg.ReadFraction {
		return model.Eval(model.Read(key))
	}
	delta := model.Record{A: c.rnd.Int63n(10) + 1, B: c.rnd.Int63n(10) + 1}
	return model.Update(key, model.Add(model.Read(key), model.Value(delta)))
}

// Run submits one transaction and returns whatever the driver returned for
// it (a model.Outcome for Single, a map[transport.Address]model.Outcome for
// Independent/Coordinated).
func (c *Client) Run(ctx context.Context) (interface{}, error) {
	if len(c.cfg.Repositories) == 1 || c.rnd.Intn(100) >= c.cfg.CrossRepositoryPct {
		addr := c.cfg.Repositories[c.rnd.Intn(len(c.cfg.Repositories))]
		return c.driver.Single(ctx, addr, []model.Operation{c.nextOp()})
	}

	participants := make(map[transport.Address][]model.Operation, len(c.cfg.Repositories))
	for _, addr := range c.cfg.Repositories {
		participants[addr] = []model.Operation{c.nextOp()}
	}
	if c.rnd.Intn(2) == 0 {
		return c.driver.Independent(ctx, participants)
	}
	return c.driver.Coordinated(ctx, participants)
}
