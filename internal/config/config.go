package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Name string
	Env  string
	Host string
	Port int
}

type RootCfg struct {
	ApiBearerToken           string
	AuthorBearerTokenPrefix  string
	AuthorBearerToken        string
	AuthorName               string
	SecretPepper             string
	EnableArgon2Verification bool
}

type LogCfg struct {
	Level string
}

type DBCfg struct {
	Driver      string
	DSN         string
	MaxOpen     int
	MaxIdle     int
	AutoMigrate bool
	EnableTLS   bool
}

type RedisCfg struct {
	Addr      string
	Password  string
	DB        int
	PoolSize  int
	EnableTLS bool
}

type MQExchangeName struct {
	Contribution string
}

type MQRoutingKey struct {
	ContributionAdded   string
	ContributionRemoved string
	ProjectUpdated      string
}

type MQCfg struct {
	Enabled      bool
	URL          string
	EnableTLS    bool
	ExchangeName MQExchangeName
	RoutingKey   MQRoutingKey
}

type S3Cfg struct {
	Enabled          bool
	Endpoint         string
	Region           string
	AccessKey        string
	SecretKey        string
	Bucket           string
	UsePathStyle     bool
	PresignExpireSec int
	SSE              string
}

type TelemetryCfg struct {
	Enabled      bool
	OtlpEndpoint string
	// Insecure dials the collector without TLS unless the endpoint names a scheme.
	Insecure           bool
	SampleRatio        float64
	MetricsIntervalSec int
}

type RealtimeCfg struct {
	// Relay selects the broadcast fan-out: "local" delivers in-process only,
	// "redis" publishes through Redis so every instance delivers to its own sessions.
	Relay              string
	ChannelPrefix      string
	SendBuffer         int
	MaxFramesPerSecond int
	MaxFrameBytes      int
}

type ExportCfg struct {
	KeyPrefix string
}

type Config struct {
	App       AppCfg
	Root      RootCfg
	Log       LogCfg
	Database  DBCfg
	Redis     RedisCfg
	RabbitMQ  MQCfg
	S3        S3Cfg
	Telemetry TelemetryCfg
	Realtime  RealtimeCfg
	Export    ExportCfg
}

func Load() (*Config, error) {
	base := viper.New()
	base.SetConfigName("config")
	base.SetConfigType("yaml")
	base.AddConfigPath("./configs")
	base.AddConfigPath(".")
	base.AutomaticEnv()
	base.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	base.SetEnvPrefix("APP") // e.g. APP_APP_PORT -> app.port

	setDefaults(base)

	if err := base.ReadInConfig(); err == nil {
		// expand ${ENV} once before parsing
		path := base.ConfigFileUsed()
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return parse(os.ExpandEnv(string(raw)))
	}

	cfg := new(Config)
	if err := base.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse loads an already expanded YAML document on top of the defaults and env overrides.
func parse(expanded string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, err
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	setDefaults(v)

	cfg := new(Config)
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "collab-studio")
	v.SetDefault("app.env", "debug")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8029)
	v.SetDefault("root.apiBearerToken", "collab-studio")
	v.SetDefault("root.authorBearerTokenPrefix", "sk-author-")
	v.SetDefault("root.authorName", "studio")
	v.SetDefault("root.secretPepper", "collab-studio-pepper")
	v.SetDefault("root.enableArgon2Verification", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.maxOpen", 20)
	v.SetDefault("database.maxIdle", 5)
	v.SetDefault("database.autoMigrate", true)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.exchangeName.contribution", "canvas.contribution")
	v.SetDefault("rabbitmq.routingKey.contributionAdded", "contribution.added")
	v.SetDefault("rabbitmq.routingKey.contributionRemoved", "contribution.removed")
	v.SetDefault("rabbitmq.routingKey.projectUpdated", "project.updated")
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "auto")
	v.SetDefault("s3.usePathStyle", true)
	v.SetDefault("s3.presignExpireSec", 900)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.sampleRatio", 1.0)
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.metricsIntervalSec", 15)
	v.SetDefault("realtime.relay", "local")
	v.SetDefault("realtime.channelPrefix", "collab:project:")
	v.SetDefault("realtime.sendBuffer", 256)
	v.SetDefault("realtime.maxFramesPerSecond", 50)
	v.SetDefault("realtime.maxFrameBytes", 256*1024)
	v.SetDefault("export.keyPrefix", "exports")
}
