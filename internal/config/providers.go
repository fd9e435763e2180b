package config

import "time"

type Archive struct {
	APIURL     string `env:"ARCHIVE_API_URL" require:"true"`
	Gateway    string `env:"IPFS_GATEWAY" envDefault:"https://ipfs.io"`
	DraftPath  string `env:"ARCHIVE_DRAFT_PATH" envDefault:"proposals/drafts"`
	ReportPath string `env:"ARCHIVE_REPORT_PATH" envDefault:"proposals/reports"`
}

type Snapshot struct {
	HubURL string `env:"SNAPSHOT_HUB_URL" envDefault:"https://hub.snapshot.org/graphql"`
	Space  string `env:"SNAPSHOT_SPACE" require:"true"`
}

type Chain struct {
	RPCURL               string `env:"CHAIN_RPC_URL" require:"true"`
	MultisigAddress      string `env:"MULTISIG_ADDRESS" require:"true"`
	GaugeRegistryAddress string `env:"GAUGE_REGISTRY_ADDRESS" require:"true"`
	VoterStartBlock      uint64 `env:"VOTER_START_BLOCK" envDefault:"0"`
	LogPageSize          int    `env:"LOG_PAGE_SIZE" envDefault:"1000"`
}

type Redis struct {
	Address    string        `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	SummaryTTL time.Duration `env:"REDIS_SUMMARY_TTL" envDefault:"5m"`
}

type AI struct {
	ExternalClientKey string `env:"AI_EXTERNAL_CLIENT_KEY"`
}

type Refresh struct {
	Interval time.Duration `env:"PROPOSAL_REFRESH_INTERVAL" envDefault:"5m"`
}

type Features struct {
	// Compatibility shim for historical records that reached community
	// voting without a council approval stage. Scheduled for removal once
	// the archive backfill lands.
	ForceDraftCurrentStage bool `env:"FEATURE_FORCE_DRAFT_CURRENT_STAGE" envDefault:"true"`
}
