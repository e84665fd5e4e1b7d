package sentinel_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/api-sentinel/pkg/sentinel"
)

type reply struct{ status int }

func (r reply) StatusCode() int { return r.status }

type statusErr struct{ status int }

func (e statusErr) Error() string   { return "upstream failed" }
func (e statusErr) StatusCode() int { return e.status }

var _ = Describe("Call", func() {
	var s *sentinel.Sentinel

	BeforeEach(func() {
		var err error
		s, err = sentinel.New(sentinel.Config{
			Endpoints:      []sentinel.Endpoint{{URL: "/api"}},
			CircuitBreaker: sentinel.BreakerConfig{Threshold: 50, Cooldown: time.Hour, VolumeThreshold: 2},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		s.Close()
	})

	It("should return the result and record a 200", func() {
		v, err := sentinel.Call(context.Background(), s, sentinel.Request{URL: "/api"},
			func(context.Context) (string, error) { return "ok", nil })

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("ok"))

		recent := s.Recent("/api")
		Expect(recent).To(HaveLen(1))
		Expect(recent[0].Status).To(Equal(http.StatusOK))
		Expect(recent[0].Method).To(Equal(http.MethodGet))
		Expect(recent[0].URL).To(Equal("/api"))
	})

	It("should take the status from the result", func() {
		_, err := sentinel.Call(context.Background(), s, sentinel.Request{URL: "/api", Method: "post"},
			func(context.Context) (reply, error) { return reply{status: 404}, nil })

		Expect(err).NotTo(HaveOccurred())
		recent := s.Recent("/api")
		Expect(recent[0].Status).To(Equal(404))
		Expect(recent[0].Method).To(Equal(http.MethodPost))
	})

	It("should take the status from the error", func() {
		_, err := sentinel.Call(context.Background(), s, sentinel.Request{URL: "/api"},
			func(context.Context) (int, error) { return 0, statusErr{status: 503} })

		Expect(err).To(MatchError("upstream failed"))
		Expect(s.Recent("/api")[0].Status).To(Equal(503))
	})

	It("should record FailureStatus for errors without a status", func() {
		boom := errors.New("connection refused")
		_, err := sentinel.Call(context.Background(), s, sentinel.Request{URL: "/api"},
			func(context.Context) (int, error) { return 0, boom })

		Expect(err).To(MatchError(boom))
		Expect(s.Recent("/api")[0].Status).To(Equal(sentinel.FailureStatus))
	})

	It("should fail fast and still record once the breaker opens", func() {
		boom := errors.New("boom")
		for range 2 {
			_, _ = sentinel.Call(context.Background(), s, sentinel.Request{URL: "/api"},
				func(context.Context) (int, error) { return 0, boom })
		}
		Expect(s.Breakers()).To(HaveKeyWithValue("/api", Equal(sentinel.BreakerOpen)))

		called := false
		_, err := sentinel.Call(context.Background(), s, sentinel.Request{URL: "/api"},
			func(context.Context) (int, error) {
				called = true
				return 1, nil
			})

		Expect(err).To(MatchError(sentinel.ErrCircuitOpen))
		Expect(called).To(BeFalse())

		recent := s.Recent("/api")
		Expect(recent).To(HaveLen(3))
		Expect(recent[2].Status).To(Equal(sentinel.FailureStatus))
	})

	It("should not share breakers between endpoints", func() {
		boom := errors.New("boom")
		for range 2 {
			_, _ = sentinel.Call(context.Background(), s, sentinel.Request{URL: "/api"},
				func(context.Context) (int, error) { return 0, boom })
		}

		_, err := sentinel.Call(context.Background(), s, sentinel.Request{URL: "/elsewhere"},
			func(context.Context) (int, error) { return 1, nil })
		Expect(err).NotTo(HaveOccurred())
	})
})
