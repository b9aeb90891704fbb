package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/ssetap/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable read by InitViper.
const EnvPrefix = "SSETAP"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads config.toml (if a .ssetap/
// directory is found; none is created), and binds environment variables
// with the SSETAP_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SSETAP_PARSER_DELIMITER, SSETAP_KAFKA_TOPIC, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Find(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
		if err := v.ReadInConfig(); err != nil {
			// Config file not found errors are fine, defaults will apply.
			if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper resolves the effective Config from v. Delimiters coming from
// flags or the environment may use backslash escapes; comma separated broker
// lists are split.
func FromViper(v *viper.Viper) *Config {
	brokers := v.GetStringSlice("kafka.brokers")
	if len(brokers) == 1 {
		brokers = SplitList(brokers[0])
	}

	return &Config{
		Version: v.GetInt("version"),
		Parser: ParserConfig{
			Delimiter: UnescapeDelimiter(v.GetString("parser.delimiter")),
			Encoding:  v.GetString("parser.encoding"),
			Log:       v.GetBool("parser.log"),
		},
		Source: SourceConfig{
			URL: v.GetString("source.url"),
			Tee: v.GetString("source.tee"),
		},
		Output: OutputConfig{
			Format: v.GetString("output.format"),
		},
		Sink: SinkConfig{
			Provider: v.GetString("sink.provider"),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   v.GetString("kafka.topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Parser
	v.SetDefault("parser.delimiter", d.Parser.Delimiter)
	v.SetDefault("parser.encoding", d.Parser.Encoding)
	v.SetDefault("parser.log", d.Parser.Log)

	// Source
	v.SetDefault("source.url", d.Source.URL)
	v.SetDefault("source.tee", d.Source.Tee)

	// Output
	v.SetDefault("output.format", d.Output.Format)

	// Sink
	v.SetDefault("sink.provider", d.Sink.Provider)

	// Kafka
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)
}
