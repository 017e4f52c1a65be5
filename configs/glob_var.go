package configs

import "time"

// Debugging parameters.
var (
	ShowDebugInfo = false
	ShowWarnings  = ShowDebugInfo
	ShowTestInfo  = ShowDebugInfo
	LogToFile     = false
)

// System parameters.
const (
	MaxAccessesPerTxn = 64
	MailboxQueueDepth = 256
	LogBatchInterval  = 10 * time.Millisecond
	MaxRetry          = 5
)

// UseWAL controls whether repositories persist intents to the durable log.
// Tests that don't care about the log turn this off to avoid touching disk.
var UseWAL = true

// ConfigFileLocation is read by cmd/granola-demo to discover repository
// addresses for the in-process cluster it spins up.
var ConfigFileLocation = "./configs/cluster.json"
