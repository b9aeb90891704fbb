package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent ssetap configuration stored as config.toml
// in the .ssetap/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Parser  ParserConfig `toml:"parser"`
	Source  SourceConfig `toml:"source"`
	Output  OutputConfig `toml:"output"`
	Sink    SinkConfig   `toml:"sink"`
	Kafka   KafkaConfig  `toml:"kafka"`
}

// ParserConfig holds the record reassembly settings.
type ParserConfig struct {
	// Delimiter is stored as the real string; TOML escapes ("\r\n\r\n") are
	// the natural way to write it in the file.
	Delimiter string `toml:"delimiter,omitempty"`
	Encoding  string `toml:"encoding,omitempty"`
	Log       bool   `toml:"log,omitempty"`
}

// SourceConfig describes where the byte stream comes from when the read
// command is given no argument.
type SourceConfig struct {
	URL string `toml:"url,omitempty"`

	// Tee is a file receiving a verbatim copy of the raw stream.
	Tee string `toml:"tee,omitempty"`
}

// OutputConfig controls how the stdout sink renders events.
type OutputConfig struct {
	// Format is one of "json", "pretty" or "data". Empty picks pretty on a
	// terminal and json otherwise.
	Format string `toml:"format,omitempty"`
}

// SinkConfig selects where parsed events are published.
type SinkConfig struct {
	Provider string `toml:"provider,omitempty"`
}

// KafkaConfig holds settings for the kafka sink.
type KafkaConfig struct {
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"parser.delimiter": {
		get: func(c *Config) string { return EscapeDelimiter(c.Parser.Delimiter) },
		set: func(c *Config, v string) error {
			d := UnescapeDelimiter(v)
			if d == "" {
				return fmt.Errorf("invalid value for parser.delimiter: must not be empty")
			}
			c.Parser.Delimiter = d
			return nil
		},
	},
	"parser.encoding": {
		get: func(c *Config) string { return c.Parser.Encoding },
		set: func(c *Config, v string) error { c.Parser.Encoding = v; return nil },
	},
	"parser.log": {
		get: func(c *Config) string { return strconv.FormatBool(c.Parser.Log) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for parser.log: %w", err)
			}
			c.Parser.Log = b
			return nil
		},
	},
	"source.url": {
		get: func(c *Config) string { return c.Source.URL },
		set: func(c *Config, v string) error { c.Source.URL = v; return nil },
	},
	"source.tee": {
		get: func(c *Config) string { return c.Source.Tee },
		set: func(c *Config, v string) error { c.Source.Tee = v; return nil },
	},
	"output.format": {
		get: func(c *Config) string { return c.Output.Format },
		set: func(c *Config, v string) error {
			if v != "" && !isValidFormat(v) {
				return fmt.Errorf("invalid value for output.format: %q (available: %s)",
					v, strings.Join(ValidFormats(), ", "))
			}
			c.Output.Format = v
			return nil
		},
	},
	"sink.provider": {
		get: func(c *Config) string { return c.Sink.Provider },
		set: func(c *Config, v string) error {
			if !isValidSink(v) {
				return fmt.Errorf("invalid value for sink.provider: %q (available: %s)",
					v, strings.Join(ValidSinks(), ", "))
			}
			c.Sink.Provider = v
			return nil
		},
	},
	"kafka.brokers": {
		get: func(c *Config) string { return joinList(c.Kafka.Brokers) },
		set: func(c *Config, v string) error { c.Kafka.Brokers = SplitList(v); return nil },
	},
	"kafka.topic": {
		get: func(c *Config) string { return c.Kafka.Topic },
		set: func(c *Config, v string) error { c.Kafka.Topic = v; return nil },
	},
}

// SplitList splits a comma separated value, dropping empty entries.
func SplitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinList(v []string) string {
	return strings.Join(v, ",")
}

var (
	unescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t")
	escaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
)

// UnescapeDelimiter turns the \n, \r, \t and \\ escapes accepted on the
// command line into the characters they name.
func UnescapeDelimiter(s string) string {
	return unescaper.Replace(s)
}

// EscapeDelimiter is the inverse of UnescapeDelimiter, for display.
func EscapeDelimiter(s string) string {
	return escaper.Replace(s)
}
