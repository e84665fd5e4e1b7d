package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/api-sentinel/config"
)

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	BeforeEach(func() {
		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tempDir)
		os.Unsetenv("SERVER_ENVIRONMENT")
		os.Unsetenv("ALERT_WEBHOOK_URL")
	})

	writeConfig := func(content string) {
		err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				writeConfig(`
server:
  address: ":9090"
  environment: "staging"

logging:
  level: "debug"

endpoints:
  - url: "https://api.example.com/users"
    thresholds:
      error_rate: 5
      latency: 500
  - pattern: "/orders/\\d+"
    thresholds:
      latency: 250

alert:
  webhook_url: "https://hooks.slack.com/services/T000/B000/XXX"
  throttle: "10s"

circuit_breaker:
  threshold: 25
  cooldown: "30s"
  volume_threshold: 5

analyzer:
  interval: "15s"
  lookback: "2m"
  window_capacity: 200
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
				Expect(cfg.Server.Address).To(Equal(":9090"))
				Expect(cfg.Logging.Level).To(Equal("debug"))
			})

			It("should parse endpoints", func() {
				cfg, _ := config.Load()
				Expect(cfg.Endpoints).To(HaveLen(2))
				Expect(cfg.Endpoints[0].URL).To(Equal("https://api.example.com/users"))
				Expect(cfg.Endpoints[0].Thresholds.ErrorRate).To(Equal(5.0))
				Expect(cfg.Endpoints[1].Pattern).To(Equal(`/orders/\d+`))
			})

			It("should keep defaults for unset keys", func() {
				cfg, _ := config.Load()
				Expect(cfg.CircuitBreaker.RollingWindow).To(Equal("10s"))
				Expect(cfg.Probe.Interval).To(Equal("30s"))
			})

			It("should convert to a sentinel config", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())

				sc, err := cfg.Sentinel()
				Expect(err).NotTo(HaveOccurred())
				Expect(sc.Endpoints).To(HaveLen(2))
				Expect(sc.Endpoints[1].Pattern.MatchString("https://api.example.com/orders/7")).To(BeTrue())
				Expect(sc.Endpoints[1].Key()).To(Equal(`/orders/\d+`))
				Expect(sc.Alert.Throttle).To(Equal(10 * time.Second))
				Expect(sc.CircuitBreaker.Threshold).To(Equal(25.0))
				Expect(sc.CircuitBreaker.Cooldown).To(Equal(30 * time.Second))
				Expect(sc.CircuitBreaker.VolumeThreshold).To(Equal(uint32(5)))
				Expect(sc.Analyzer.Interval).To(Equal(15 * time.Second))
				Expect(sc.Analyzer.Lookback).To(Equal(2 * time.Minute))
				Expect(sc.Analyzer.Capacity).To(Equal(200))
				Expect(sc.Validate()).To(Succeed())
			})
		})

		Context("with environment variables", func() {
			It("should use defaults when config file missing", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Environment).To(Equal(config.EnvDev))
				Expect(cfg.Analyzer.Interval).To(Equal("60s"))
				Expect(cfg.Analyzer.WindowCapacity).To(Equal(1000))
				Expect(cfg.Endpoints).To(BeEmpty())
			})

			It("should let the environment override defaults", func() {
				os.Setenv("SERVER_ENVIRONMENT", "prod")
				os.Setenv("ALERT_WEBHOOK_URL", "https://hooks.example.com/x")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Environment).To(Equal(config.EnvProd))
				Expect(cfg.Alert.WebhookURL).To(Equal("https://hooks.example.com/x"))
			})
		})

		Context("with invalid values", func() {
			It("should reject an endpoint with both url and pattern", func() {
				writeConfig(`
endpoints:
  - url: "https://api.example.com"
    pattern: "example"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a malformed pattern", func() {
				writeConfig(`
endpoints:
  - pattern: "(["
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject an error rate above 100", func() {
				writeConfig(`
endpoints:
  - url: "/api"
    thresholds:
      error_rate: 150
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a bad duration", func() {
				writeConfig(`
analyzer:
  interval: "soon"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject an unknown environment", func() {
				writeConfig(`
server:
  environment: "qa"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Probe durations", func() {
		It("should parse probe settings", func() {
			cfg := &config.Config{Probe: config.ProbeConfig{Interval: "15s", Timeout: "2s"}}
			Expect(cfg.ProbeInterval()).To(Equal(15 * time.Second))
			Expect(cfg.ProbeTimeout()).To(Equal(2 * time.Second))
		})

		It("should return zero for unset values", func() {
			cfg := &config.Config{}
			Expect(cfg.ProbeInterval()).To(BeZero())
		})
	})
})
