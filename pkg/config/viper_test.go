package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ssetap/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("resolves defaults without a config file", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		Expect(cfg.Parser.Delimiter).To(Equal("\n\n"))
		Expect(cfg.Parser.Encoding).To(Equal("utf-8"))
		Expect(cfg.Kafka.Brokers).To(Equal([]string{"localhost:9092"}))
	})

	It("does not create a missing config dir", func() {
		dir := filepath.Join(tmpDir, "absent")
		_, err := config.InitViper(dir)
		Expect(err).NotTo(HaveOccurred())

		_, err = os.Stat(dir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("layers file, env and flags", func() {
		data := `[parser]
delimiter = "\r\n\r\n"
encoding = "latin1"

[kafka]
topic = "from-file"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("SSETAP_PARSER_ENCODING", "utf-16le")
		GinkgoT().Setenv("SSETAP_KAFKA_BROKERS", "a:1,b:2")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		var topic string
		cmd := &cobra.Command{Use: "test"}
		config.AddStringFlag(cmd, config.ReadFlags, config.FlagKafkaTopic, &topic)
		Expect(cmd.Flags().Set("kafka-topic", "from-flag")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.ReadFlags, []string{config.FlagKafkaTopic})

		cfg := config.FromViper(v)
		Expect(cfg.Parser.Delimiter).To(Equal("\r\n\r\n"))
		Expect(cfg.Parser.Encoding).To(Equal("utf-16le"))
		Expect(cfg.Kafka.Brokers).To(Equal([]string{"a:1", "b:2"}))
		Expect(cfg.Kafka.Topic).To(Equal("from-flag"))
	})

	It("unescapes a delimiter given as a flag", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		var delim string
		cmd := &cobra.Command{Use: "test"}
		config.AddStringFlag(cmd, config.ReadFlags, config.FlagDelimiter, &delim)
		Expect(cmd.Flags().Lookup("delimiter").DefValue).To(Equal(`\n\n`))

		Expect(cmd.Flags().Set("delimiter", `\r\n\r\n`)).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.ReadFlags, []string{config.FlagDelimiter})

		Expect(config.FromViper(v).Parser.Delimiter).To(Equal("\r\n\r\n"))
	})

	It("registers bool flags with their defaults", func() {
		var log bool
		cmd := &cobra.Command{Use: "test"}
		config.AddBoolFlag(cmd, config.ReadFlags, config.FlagLog, &log)

		f := cmd.Flags().Lookup("log")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("false"))
	})
})
