package config

type App struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DB         DB
	API        API
	Nats       Nats
	Prometheus Prometheus
	Health     Health
	Archive    Archive
	Snapshot   Snapshot
	Chain      Chain
	Redis      Redis
	AI         AI
	Refresh    Refresh
	Features   Features
}
