package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline.
type Flag struct {
	// Name is the long flag name (e.g. "delimiter").
	Name string

	// Shorthand is the one-letter short flag (e.g. "D"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "parser.delimiter").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string

	// Escaped shows the default with backslash escapes, for values holding
	// control characters.
	Escaped bool
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagDelimiter    = "delimiter"
	FlagEncoding     = "encoding"
	FlagLog          = "log"
	FlagTee          = "tee"
	FlagFormat       = "format"
	FlagSink         = "sink"
	FlagKafkaBrokers = "kafka-brokers"
	FlagKafkaTopic   = "kafka-topic"
)

// ReadFlags are the flags of the read command.
var ReadFlags = FlagSet{
	FlagDelimiter: {
		Name:        "delimiter",
		Shorthand:   "D",
		ViperKey:    "parser.delimiter",
		Description: `Record delimiter; accepts \n, \r, \t and \\ escapes`,
		Escaped:     true,
	},
	FlagEncoding: {
		Name:        "encoding",
		Shorthand:   "e",
		ViperKey:    "parser.encoding",
		Description: "Text encoding of the stream (WHATWG label)",
	},
	FlagLog: {
		Name:        "log",
		ViperKey:    "parser.log",
		Description: "Log every record to stderr before parsing",
	},
	FlagTee: {
		Name:        "tee",
		ViperKey:    "source.tee",
		Description: "Write a verbatim copy of the raw stream to this file",
	},
	FlagFormat: {
		Name:        "format",
		Shorthand:   "f",
		ViperKey:    "output.format",
		Description: "Stdout format: json, pretty or data (default: pretty on a terminal, json otherwise)",
	},
	FlagSink: {
		Name:        "sink",
		Shorthand:   "s",
		ViperKey:    "sink.provider",
		Description: "Where to publish events: stdout, kafka or none",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "kafka.brokers",
		Description: "Comma separated kafka broker addresses",
	},
	FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "kafka.topic",
		Description: "Kafka topic for published events",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Escaped {
		defaultVal = EscapeDelimiter(defaultVal)
	}

	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)

	if viperKey == "kafka.brokers" {
		return joinList(v.GetStringSlice(viperKey))
	}
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
