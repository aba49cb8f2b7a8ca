package tele_config

type Config struct {
	Enable         bool   `hcl:"enable"`
	ClientID       string `hcl:"client_id"`
	MqttBroker     string `hcl:"broker"`
	MqttPassword   string `hcl:"password"`
	TopicPrefix    string `hcl:"topic_prefix"`
	KeepaliveSec   int    `hcl:"keepalive_sec"`
	PingTimeoutSec int    `hcl:"ping_timeout_sec"`

	BuildVersion string `hcl:"-"`
}
