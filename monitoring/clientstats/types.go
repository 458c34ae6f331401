// Package clientstats gathers the engine's prometheus metrics into the JSON
// documents understood by remote client monitoring endpoints, and posts them
// on a fixed schedule.
package clientstats

import "io"

const (
	// ClientName is the reported client name.
	ClientName = "epochengine"
	// EngineProcessName is the process name of the epoch engine document.
	EngineProcessName = "beaconnode"
	// SystemProcessName is the process name of the host document.
	SystemProcessName = "system"
	// APIVersion is the version of the remote monitoring API.
	APIVersion = 1
)

// APIMessage is present on every document sent to the monitoring endpoint.
type APIMessage struct {
	APIVersion  int    `json:"version"`
	Timestamp   int64  `json:"timestamp"` // unix timestamp in milliseconds
	ProcessName string `json:"process"`   // beaconnode or system
}

// CommonStats are the process level metrics of the engine.
type CommonStats struct {
	CPUProcessSecondsTotal int64  `json:"cpu_process_seconds_total"`
	MemoryProcessBytes     int64  `json:"memory_process_bytes"`
	ClientName             string `json:"client_name"`
	ClientVersion          string `json:"client_version"`
	ClientBuild            int64  `json:"client_build"`
}

// EngineStats embeds APIMessage and CommonStats, and adds the progress of
// epoch processing, the state archive and the network.
type EngineStats struct {
	// EpochLastProcessed is the last epoch whose end of epoch steps ran.
	EpochLastProcessed int64 `json:"epoch_last_processed"`
	// EpochTransitionsTotal counts processed epoch boundaries.
	EpochTransitionsTotal int64 `json:"epoch_transitions_total"`
	// EpochRewardsGwei and EpochPenaltiesGwei are the totals applied
	// in the last processed epoch.
	EpochRewardsGwei   int64 `json:"epoch_rewards_gwei"`
	EpochPenaltiesGwei int64 `json:"epoch_penalties_gwei"`
	// ArchivedStatesTotal counts states written to the archive.
	ArchivedStatesTotal int64 `json:"archived_states_total"`
	// NetworkPeersConnected is the number of currently connected peers.
	NetworkPeersConnected int64 `json:"network_peers_connected"`
	APIMessage
	CommonStats
}

// SystemStats describes the host the engine runs on as the go runtime
// observes it.
type SystemStats struct {
	CPUCores          int64 `json:"cpu_cores"`
	CPUThreads        int64 `json:"cpu_threads"`
	MemoryHeapBytes   int64 `json:"memory_heap_bytes"`
	MemorySystemBytes int64 `json:"memory_system_bytes"`
	Goroutines        int64 `json:"goroutines"`
	APIMessage
}

// Scraper is an interface type that allows for mocking implementations.
// Scraper wraps the logic of fetching and parsing the prometheus
// endpoint of a process into the JSON body expected by the
// remote monitoring endpoint.
type Scraper interface {
	Scrape() (io.Reader, error)
}

// Updater is an interface type that allows for mocking implementations.
// Updater forwards the JSON produced by a Scraper to its destination.
type Updater interface {
	Update(io.Reader) error
}
