package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ssetap/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeConfig := func(data string) {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
			Expect(cfg.Parser.Delimiter).To(Equal("\n\n"))
			Expect(cfg.Parser.Encoding).To(Equal("utf-8"))
			Expect(cfg.Parser.Log).To(BeFalse())
			Expect(cfg.Sink.Provider).To(Equal(config.SinkStdout))
		})

		It("loads all config fields", func() {
			writeConfig(`version = 0

[parser]
delimiter = "\r\n\r\n"
encoding = "latin1"
log = true

[source]
url = "https://example.com/stream"
tee = "/tmp/raw.sse"

[output]
format = "data"

[sink]
provider = "kafka"

[kafka]
brokers = ["k1:9092", "k2:9092"]
topic = "events"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Parser.Delimiter).To(Equal("\r\n\r\n"))
			Expect(cfg.Parser.Encoding).To(Equal("latin1"))
			Expect(cfg.Parser.Log).To(BeTrue())
			Expect(cfg.Source.URL).To(Equal("https://example.com/stream"))
			Expect(cfg.Source.Tee).To(Equal("/tmp/raw.sse"))
			Expect(cfg.Output.Format).To(Equal(config.FormatData))
			Expect(cfg.Sink.Provider).To(Equal(config.SinkKafka))
			Expect(cfg.Kafka.Brokers).To(Equal([]string{"k1:9092", "k2:9092"}))
			Expect(cfg.Kafka.Topic).To(Equal("events"))
		})

		It("fills unset fields with defaults", func() {
			writeConfig(`[parser]
encoding = "utf-16le"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Parser.Encoding).To(Equal("utf-16le"))
			Expect(cfg.Parser.Delimiter).To(Equal("\n\n"))
			Expect(cfg.Kafka.Topic).To(Equal("ssetap.events"))
		})

		It("returns error for malformed TOML", func() {
			writeConfig("not valid toml [[[")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(cfg).To(BeNil())
		})

		It("returns error for unsupported config version", func() {
			writeConfig("version = 99\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version")))
			Expect(cfg).To(BeNil())
		})
	})

	Describe("SaveConfig", func() {
		It("round-trips control characters in the delimiter", func() {
			cfg := config.NewDefaultConfig()
			cfg.Parser.Delimiter = "\r\n\r\n"

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Parser.Delimiter).To(Equal("\r\n\r\n"))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).NotTo(Succeed())
		})
	})

	Describe("SetConfigValue and GetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("unescapes delimiters on set and escapes them on get", func() {
			Expect(c.SetConfigValue("parser.delimiter", `\r\n\r\n`)).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Parser.Delimiter).To(Equal("\r\n\r\n"))

			v, err := c.GetConfigValue("parser.delimiter")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(`\r\n\r\n`))
		})

		It("rejects an empty delimiter", func() {
			Expect(c.SetConfigValue("parser.delimiter", "")).To(MatchError(ContainSubstring("must not be empty")))
		})

		It("sets a bool key", func() {
			Expect(c.SetConfigValue("parser.log", "true")).To(Succeed())

			v, err := c.GetConfigValue("parser.log")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("true"))
		})

		It("rejects an invalid bool", func() {
			Expect(c.SetConfigValue("parser.log", "maybe")).To(MatchError(ContainSubstring("parser.log")))
		})

		It("splits broker lists", func() {
			Expect(c.SetConfigValue("kafka.brokers", "a:9092, b:9092,")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Kafka.Brokers).To(Equal([]string{"a:9092", "b:9092"}))

			v, err := c.GetConfigValue("kafka.brokers")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("a:9092,b:9092"))
		})

		It("validates sink and format values", func() {
			Expect(c.SetConfigValue("sink.provider", "carrier-pigeon")).To(MatchError(ContainSubstring("sink.provider")))
			Expect(c.SetConfigValue("output.format", "xml")).To(MatchError(ContainSubstring("output.format")))
			Expect(c.SetConfigValue("output.format", "")).To(Succeed())
		})

		It("rejects unknown keys", func() {
			Expect(c.SetConfigValue("proxy.upstream", "x")).To(MatchError(ContainSubstring("unknown config key")))

			_, err := c.GetConfigValue("proxy.upstream")
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Config keys", func() {
	It("lists every key exactly once", func() {
		keys := config.ValidConfigKeys()
		Expect(keys).To(HaveLen(9))
		Expect(keys).To(ContainElements("parser.delimiter", "parser.encoding", "parser.log", "kafka.topic"))
		for _, k := range keys {
			Expect(config.IsValidConfigKey(k)).To(BeTrue())
		}
	})
})

var _ = Describe("Delimiter escapes", func() {
	DescribeTable("UnescapeDelimiter",
		func(in, want string) {
			Expect(config.UnescapeDelimiter(in)).To(Equal(want))
			Expect(config.UnescapeDelimiter(config.EscapeDelimiter(want))).To(Equal(want))
		},
		Entry("default", `\n\n`, "\n\n"),
		Entry("crlf", `\r\n\r\n`, "\r\n\r\n"),
		Entry("tab", `\t`, "\t"),
		Entry("escaped backslash", `\\n`, `\n`),
		Entry("real newlines pass through", "\n\n", "\n\n"),
		Entry("plain text", "---", "---"),
	)
})

var _ = Describe("PresetConfig", func() {
	It("returns the crlf preset", func() {
		cfg, err := config.PresetConfig("CRLF")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Parser.Delimiter).To(Equal("\r\n\r\n"))
	})

	It("returns the kafka preset", func() {
		cfg, err := config.PresetConfig("kafka")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Sink.Provider).To(Equal(config.SinkKafka))
	})

	It("rejects unknown presets", func() {
		_, err := config.PresetConfig("ollama")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
	})
})
