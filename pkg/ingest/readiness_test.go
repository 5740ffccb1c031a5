package ingest_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caselode/caselode/pkg/ingest"
	"github.com/caselode/caselode/pkg/logger"
	testutils "github.com/caselode/caselode/pkg/utils/test"
	"github.com/caselode/caselode/pkg/vector"
)

var _ = Describe("AwaitReady", func() {
	var driver *testutils.MockVectorDriver

	BeforeEach(func() {
		driver = testutils.NewMockVectorDriver()
	})

	It("returns immediately when the collection is ready", func() {
		driver.StatusSequence = []vector.Status{vector.StatusReady}

		err := ingest.AwaitReady(context.Background(), driver, "caselaw", logger.Nop(), ingest.ReadinessOpts{
			Interval: time.Millisecond,
			Timeout:  time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.StatusCalls()).To(Equal(1))
	})

	It("polls until the collection becomes ready", func() {
		driver.StatusSequence = []vector.Status{
			vector.StatusPending,
			vector.StatusPending,
			vector.StatusReady,
		}

		err := ingest.AwaitReady(context.Background(), driver, "caselaw", logger.Nop(), ingest.ReadinessOpts{
			Interval: time.Millisecond,
			Timeout:  time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.StatusCalls()).To(Equal(3))
	})

	It("treats unknown states as not ready", func() {
		driver.StatusSequence = []vector.Status{
			vector.StatusUnknown,
			vector.StatusReady,
		}

		err := ingest.AwaitReady(context.Background(), driver, "caselaw", logger.Nop(), ingest.ReadinessOpts{
			Interval: time.Millisecond,
			Timeout:  time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.StatusCalls()).To(Equal(2))
	})

	It("times out when the collection never becomes ready", func() {
		driver.StatusSequence = []vector.Status{vector.StatusPending}

		err := ingest.AwaitReady(context.Background(), driver, "caselaw", logger.Nop(), ingest.ReadinessOpts{
			Interval: time.Millisecond,
			Timeout:  20 * time.Millisecond,
		})
		Expect(err).To(MatchError(ingest.ErrReadinessTimeout))
		Expect(err.Error()).To(ContainSubstring("pending"))
	})

	It("stops when the context is cancelled", func() {
		driver.StatusSequence = []vector.Status{vector.StatusPending}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := ingest.AwaitReady(ctx, driver, "caselaw", logger.Nop(), ingest.ReadinessOpts{
			Interval: 50 * time.Millisecond,
			Timeout:  time.Minute,
		})
		Expect(err).To(MatchError(ingest.ErrReadinessTimeout))
	})
})
