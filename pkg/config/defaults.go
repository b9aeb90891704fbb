package config

import "slices"

const (
	defaultDelimiter = "\n\n"
	defaultEncoding  = "utf-8"

	defaultSink       = SinkStdout
	defaultKafkaTopic = "ssetap.events"
	defaultKafkaAddr  = "localhost:9092"
)

// Sink providers.
const (
	SinkStdout = "stdout"
	SinkKafka  = "kafka"
	SinkNone   = "none"
)

// Output formats for the stdout sink.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
	FormatData   = "data"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Parser: ParserConfig{
			Delimiter: defaultDelimiter,
			Encoding:  defaultEncoding,
		},
		Sink: SinkConfig{
			Provider: defaultSink,
		},
		Kafka: KafkaConfig{
			Brokers: []string{defaultKafkaAddr},
			Topic:   defaultKafkaTopic,
		},
	}
}

// ValidSinks returns the recognized sink providers.
func ValidSinks() []string {
	return []string{SinkStdout, SinkKafka, SinkNone}
}

// ValidFormats returns the recognized stdout formats.
func ValidFormats() []string {
	return []string{FormatJSON, FormatPretty, FormatData}
}

func isValidSink(s string) bool {
	return slices.Contains(ValidSinks(), s)
}

func isValidFormat(s string) bool {
	return slices.Contains(ValidFormats(), s)
}
