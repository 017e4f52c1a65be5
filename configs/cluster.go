package configs

import (
	"os"

	"github.com/goccy/go-json"
)

// Cluster is the on-disk topology cmd/granola-demo reads at startup: the set
// of repository addresses to spin up. Grounded on FC/network/participant/
// main.go's loadConfig, which reads configs.ConfigFileLocation as JSON and
// pulls a "participants" map out of it; here the shape is flattened to a
// single "repositories" array since this toy cluster has no separate
// coordinator process.
type Cluster struct {
	Repositories []string `json:"repositories"`
}

// LoadCluster reads and parses path as a Cluster, matching FC's loadConfig
// fallback of retrying with a "." prefix when the first read fails (useful
// when the binary is invoked from a different working directory than the
// module root).
func LoadCluster(path string) (Cluster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		raw, err = os.ReadFile("." + path)
	}
	if err != nil {
		return Cluster{}, err
	}
	var c Cluster
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cluster{}, err
	}
	return c, nil
}
