// Command granola-demo drives a handful of simulated clients against an
// in-process set of repositories, printing aggregate commit/abort counts.
// It is a thin CLI collaborator (spec.md §1 explicitly puts CLI parsing out
// of the core's scope) built the way FC/fc-server/main.go wires flags to a
// benchmark run.
package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"granola/client"
	"granola/configs"
	"granola/model"
	"granola/repository"
	"granola/transport"
	"granola/workload"
)

func main() {
	var (
		numRepos   = flag.Int("repos", 3, "number of repositories (ignored if -config is set)")
		numClients = flag.Int("clients", 4, "number of concurrent workload clients")
		keys       = flag.Int64("keys", 1000, "keys per repository")
		skew       = flag.Float64("skew", 0.9, "zipfian skew")
		readPct    = flag.Float64("read", 0.5, "read fraction")
		crossPct   = flag.Int("cross", 30, "percentage of transactions spanning every repository")
		duration   = flag.Duration("duration", 2*time.Second, "how long to run the workload")
		debug      = flag.Bool("debug", false, "log debug info")
		configPath = flag.String("config", "", "cluster topology file (if unset, -repos synthetic repositories are used)")
	)
	flag.Parse()
	configs.ShowDebugInfo = *debug
	if *configPath != "" {
		configs.ConfigFileLocation = *configPath
	}

	bus := transport.NewBus()
	clock := configs.NewCounterClock()

	repoNames := loadRepoNames(*configPath != "", *numRepos)
	addrs := make([]transport.Address, len(repoNames))
	for i, name := range repoNames {
		addr := transport.Address(name)
		addrs[i] = addr
		repo, err := repository.New(addr, bus, clock)
		if err != nil {
			panic(err)
		}
		seed := make(map[model.Key]model.Record, *keys)
		for k := int64(0); k < *keys; k++ {
			seed[model.Key(k)] = model.Record{A: k, B: k}
		}
		repo.Seed(seed)
	}

	driver := client.New(bus, 1, clock)
	cfg := workload.Config{
		Repositories:       addrs,
		KeysPerRepository:  *keys,
		Skew:               *skew,
		ReadFraction:       *readPct,
		CrossRepositoryPct: *crossPct,
	}

	var commits, aborts int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < *numClients; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			c := workload.NewClient(cfg, driver, seed)
			for ctx.Err() == nil {
				_, err := c.Run(ctx)
				if err != nil {
					atomic.AddInt64(&aborts, 1)
				} else {
					atomic.AddInt64(&commits, 1)
				}
			}
		}(int64(i)*11 + 13)
	}
	wg.Wait()

	fmt.Printf("commits=%d aborts=%d\n", atomic.LoadInt64(&commits), atomic.LoadInt64(&aborts))
	if *debug {
		configs.JPrint(map[string]int64{"commits": atomic.LoadInt64(&commits), "aborts": atomic.LoadInt64(&aborts)})
	}
}

// loadRepoNames reads configs.ConfigFileLocation when explicit is true (the
// caller passed -config), otherwise synthesizes n repo names, matching
// FC/network/participant/main.go's loadConfig-or-defaults shape.
func loadRepoNames(explicit bool, n int) []string {
	if explicit {
		cluster, err := configs.LoadCluster(configs.ConfigFileLocation)
		configs.CheckError(err)
		return cluster.Repositories
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("repo-%d", i)
	}
	return names
}
