package async_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// fakeProcessor echoes the input filename into Result.Error so tests can
// tell results apart. A non-nil gate holds each run until it is closed or
// the run's context ends.
type fakeProcessor struct {
	gate chan struct{}

	mu   sync.Mutex
	seen []string
}

func (f *fakeProcessor) Run(ctx context.Context, in pipeline.Input) pipeline.Result {
	f.mu.Lock()
	f.seen = append(f.seen, in.Filename)
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return pipeline.Result{RunID: uuid.New(), Error: ctx.Err().Error()}
		}
	}
	return pipeline.Result{RunID: uuid.New(), OK: true, Error: in.Filename}
}

func (f *fakeProcessor) Seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

type collector struct {
	mu      sync.Mutex
	results map[string]pipeline.Result
}

func (c *collector) handle(job async.Job, res pipeline.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[job.ID] = res
}

func (c *collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func (c *collector) Get(id string) pipeline.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[id]
}

var _ = Describe("ProcessorQueue", func() {
	var (
		ctx  context.Context
		proc *fakeProcessor
		got  *collector
		opts []async.Option
		q    *async.ProcessorQueue
	)

	BeforeEach(func() {
		ctx = context.Background()
		proc = &fakeProcessor{}
		got = &collector{results: map[string]pipeline.Result{}}
		opts = []async.Option{async.WithWorkers(2), async.WithQueueSize(4), async.WithResultHandler(got.handle)}
	})

	JustBeforeEach(func() {
		q = async.NewProcessorQueue(proc, nil, opts...)
		DeferCleanup(func() { q.Shutdown(context.Background()) })
	})

	It("runs every queued job and reports each result", func() {
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			Expect(q.Enqueue(ctx, async.Job{ID: name, Input: pipeline.Input{Filename: name}})).To(Succeed())
		}
		Eventually(got.Len).Should(Equal(3))
		Expect(got.Get("b.txt").OK).To(BeTrue())
		Expect(got.Get("b.txt").Error).To(Equal("b.txt"))
		Expect(proc.Seen()).To(ConsistOf("a.txt", "b.txt", "c.txt"))
	})

	It("drains queued jobs on shutdown", func() {
		for i := 0; i < 4; i++ {
			Expect(q.Enqueue(ctx, async.Job{ID: uuid.NewString()})).To(Succeed())
		}
		q.Shutdown(ctx)
		Expect(got.Len()).To(Equal(4))
	})

	It("rejects jobs after shutdown", func() {
		q.Shutdown(ctx)
		err := q.Enqueue(ctx, async.Job{ID: "late"})
		Expect(err).To(MatchError(async.ErrQueueClosed))
	})

	It("tolerates a second shutdown", func() {
		q.Shutdown(ctx)
		Expect(func() { q.Shutdown(ctx) }).NotTo(Panic())
	})

	When("a job outlives the process timeout", func() {
		BeforeEach(func() {
			proc.gate = make(chan struct{})
			opts = append(opts, async.WithProcessTimeout(20*time.Millisecond))
		})

		It("cancels the run and still reports it", func() {
			Expect(q.Enqueue(ctx, async.Job{ID: "slow"})).To(Succeed())
			Eventually(got.Len).Should(Equal(1))
			Expect(got.Get("slow").Error).To(Equal(context.DeadlineExceeded.Error()))
		})
	})

	When("the queue is full", func() {
		BeforeEach(func() {
			proc.gate = make(chan struct{})
			opts = []async.Option{
				async.WithWorkers(1),
				async.WithQueueSize(1),
				async.WithProcessTimeout(time.Minute),
				async.WithResultHandler(got.handle),
			}
		})

		It("gives up when the caller's context ends", func() {
			// One job occupies the worker and one fills the buffer.
			Expect(q.Enqueue(ctx, async.Job{ID: "running"})).To(Succeed())
			Eventually(func() int { return len(proc.Seen()) }).Should(Equal(1))
			Expect(q.Enqueue(ctx, async.Job{ID: "buffered"})).To(Succeed())

			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := q.Enqueue(short, async.Job{ID: "overflow"})
			Expect(err).To(MatchError(context.DeadlineExceeded))

			close(proc.gate)
			Eventually(got.Len).Should(Equal(2))
		})
	})
})
