package config

type API struct {
	Bind string `env:"API_SERVER_BIND" envDefault:":11200"`
}

type Prometheus struct {
	Listen string `env:"PROMETHEUS_LISTEN" envDefault:":9180"`
}

type Health struct {
	Listen string `env:"HEALTH_LISTEN" envDefault:":10280"`
}
