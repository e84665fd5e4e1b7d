package sentinel_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angeloszaimis/api-sentinel/pkg/sentinel"
)

type recordingSink struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSink) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSink) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

var _ = Describe("Sentinel", func() {
	Describe("New", func() {
		It("should reject an invalid config", func() {
			_, err := sentinel.New(sentinel.Config{
				Endpoints: []sentinel.Endpoint{{}},
			})
			Expect(err).To(HaveOccurred())
		})

		It("should reject a malformed webhook URL", func() {
			_, err := sentinel.New(sentinel.Config{
				Alert: sentinel.AlertConfig{WebhookURL: "not a url"},
			})
			Expect(err).To(HaveOccurred())
		})

		It("should accept an empty config", func() {
			s, err := sentinel.New(sentinel.Config{})
			Expect(err).NotTo(HaveOccurred())
			s.Close()
		})

		It("should keep instances independent", func() {
			a, err := sentinel.New(sentinel.Config{})
			Expect(err).NotTo(HaveOccurred())
			defer a.Close()
			b, err := sentinel.New(sentinel.Config{})
			Expect(err).NotTo(HaveOccurred())
			defer b.Close()

			a.Record("/x", "GET", 200, time.Millisecond)

			Expect(a.Recent(sentinel.GlobalKey)).To(HaveLen(1))
			Expect(b.Recent(sentinel.GlobalKey)).To(BeEmpty())
		})

		It("should share a caller registry across instances", func() {
			reg := prometheus.NewRegistry()
			a, err := sentinel.New(sentinel.Config{}, sentinel.WithRegistry(reg))
			Expect(err).NotTo(HaveOccurred())
			defer a.Close()
			b, err := sentinel.New(sentinel.Config{}, sentinel.WithRegistry(reg))
			Expect(err).NotTo(HaveOccurred())
			defer b.Close()
		})
	})

	Describe("Resolve", func() {
		It("should key URLs by literal, pattern or global", func() {
			s, err := sentinel.New(sentinel.Config{
				Endpoints: []sentinel.Endpoint{
					{URL: "https://api.example.com/users"},
					{Pattern: regexp.MustCompile(`/orders/\d+`)},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			Expect(s.Resolve("https://api.example.com/users")).To(Equal("https://api.example.com/users"))
			Expect(s.Resolve("https://api.example.com/orders/42")).To(Equal(`/orders/\d+`))
			Expect(s.Resolve("https://api.example.com/other")).To(Equal(sentinel.GlobalKey))
		})
	})

	Describe("Start and Close", func() {
		It("should run analysis passes until closed", func() {
			sink := &recordingSink{}
			s, err := sentinel.New(sentinel.Config{
				Endpoints: []sentinel.Endpoint{
					{URL: "/api", Thresholds: sentinel.Thresholds{ErrorRate: 5}},
				},
				Analyzer: sentinel.AnalyzerConfig{Interval: 20 * time.Millisecond},
			}, sentinel.WithSink(sink))
			Expect(err).NotTo(HaveOccurred())

			s.Record("/api", "GET", 503, time.Millisecond)
			s.Start(context.Background())
			s.Start(context.Background())

			Eventually(sink.Texts).Should(ConsistOf(ContainSubstring("High error rate detected for /api: 100%")))
			s.Close()
			s.Close()
		})
	})

	Describe("Snapshot", func() {
		It("should report windows and breaker states", func() {
			s, err := sentinel.New(sentinel.Config{
				Endpoints: []sentinel.Endpoint{{URL: "/api"}},
			})
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			_, err = sentinel.Call(context.Background(), s, sentinel.Request{URL: "/api"},
				func(context.Context) (int, error) { return 1, nil })
			Expect(err).NotTo(HaveOccurred())

			snap := s.Snapshot()
			Expect(snap.Metrics.TotalRequests).To(Equal(int64(1)))
			Expect(snap.Metrics.Endpoints).To(HaveKey("/api"))
			Expect(snap.Breakers).To(Equal(map[string]string{"/api": "closed"}))
		})

		It("should serve status and metrics over HTTP", func() {
			s, err := sentinel.New(sentinel.Config{})
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			s.Record("/x", "get", 404, 3*time.Millisecond)

			rec := httptest.NewRecorder()
			s.StatusHandler()(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var status sentinel.Status
			Expect(json.Unmarshal(rec.Body.Bytes(), &status)).To(Succeed())
			Expect(status.Metrics.Endpoints[sentinel.GlobalKey].Errors).To(Equal(int64(1)))

			rec = httptest.NewRecorder()
			s.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			Expect(rec.Body.String()).To(ContainSubstring("sentinel_requests_total"))
			Expect(rec.Body.String()).To(ContainSubstring(`method="GET"`))
		})
	})

	Describe("end to end", func() {
		It("should alert exactly once on a 50% error rate", func() {
			var calls int
			var mu sync.Mutex
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				calls++
				n := calls
				mu.Unlock()
				if n%2 == 0 {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			sink := &recordingSink{}
			s, err := sentinel.New(sentinel.Config{
				Endpoints: []sentinel.Endpoint{
					{URL: server.URL + "/api", Thresholds: sentinel.Thresholds{ErrorRate: 5}},
				},
				CircuitBreaker: sentinel.BreakerConfig{Threshold: 100, VolumeThreshold: 10},
			}, sentinel.WithSink(sink))
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			for range 2 {
				resp, err := s.Fetch(context.Background(), http.MethodGet, server.URL+"/api", nil)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
			}

			reports := s.Analyze(context.Background())
			Expect(reports).To(HaveLen(1))
			Expect(reports[0].ErrorRate).To(Equal(50.0))

			texts := sink.Texts()
			Expect(texts).To(HaveLen(1))
			Expect(strings.Contains(texts[0], "50%")).To(BeTrue())
		})
	})
})
