package probe_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/api-sentinel/internal/probe"
)

var _ = Describe("Prober", func() {
	var (
		server *httptest.Server
		status atomic.Int32
		hits   atomic.Int32
	)

	BeforeEach(func() {
		status.Store(http.StatusOK)
		hits.Store(0)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(int(status.Load()))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Check", func() {
		It("should mark a 2xx target healthy", func() {
			p := probe.New(server.Client(), []string{server.URL})
			t := p.Targets()[0]

			Expect(p.Check(context.Background(), t)).To(BeTrue())
			Expect(t.IsHealthy()).To(BeTrue())
			Expect(t.EWMATime()).To(BeNumerically(">", 0))
		})

		It("should treat 4xx as reachable", func() {
			status.Store(http.StatusNotFound)
			p := probe.New(server.Client(), []string{server.URL})

			Expect(p.Check(context.Background(), p.Targets()[0])).To(BeTrue())
		})

		It("should mark a 5xx target unhealthy", func() {
			status.Store(http.StatusServiceUnavailable)
			p := probe.New(server.Client(), []string{server.URL})
			t := p.Targets()[0]

			Expect(p.Check(context.Background(), t)).To(BeFalse())
			Expect(t.IsHealthy()).To(BeFalse())
		})

		It("should mark an unreachable target unhealthy", func() {
			url := server.URL
			server.Close()
			p := probe.New(nil, []string{url}, probe.WithTimeout(time.Second))

			Expect(p.Check(context.Background(), p.Targets()[0])).To(BeFalse())
		})

		It("should reject an invalid URL", func() {
			p := probe.New(nil, []string{"://bad"})
			Expect(p.Check(context.Background(), p.Targets()[0])).To(BeFalse())
		})
	})

	Describe("Run", func() {
		It("should probe on every interval until cancelled", func() {
			p := probe.New(server.Client(), []string{server.URL, server.URL + "/other"},
				probe.WithInterval(20*time.Millisecond))

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				defer close(done)
				p.Run(ctx)
			}()

			Eventually(hits.Load).Should(BeNumerically(">=", 4))
			cancel()
			Eventually(done).Should(BeClosed())
		})
	})

	Describe("Handler", func() {
		It("should serve target status as JSON", func() {
			p := probe.New(server.Client(), []string{server.URL})
			p.Check(context.Background(), p.Targets()[0])

			rec := httptest.NewRecorder()
			p.Handler()(rec, httptest.NewRequest(http.MethodGet, "/probes", nil))

			var statuses []probe.Status
			Expect(json.Unmarshal(rec.Body.Bytes(), &statuses)).To(Succeed())
			Expect(statuses).To(HaveLen(1))
			Expect(statuses[0].URL).To(Equal(server.URL))
			Expect(statuses[0].Probed).To(BeTrue())
			Expect(statuses[0].Healthy).To(BeTrue())
		})
	})
})
