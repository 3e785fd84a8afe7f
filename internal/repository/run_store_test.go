package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

func newRun(created time.Time, filename string) entity.PipelineRun {
	return entity.PipelineRun{
		ID:           uuid.New(),
		CreatedAt:    created,
		Filename:     filename,
		MimeType:     "text/plain",
		FileSize:     512,
		SourceFormat: "text",
		SHA256:       "abc123",
		Stage:        "complete",
		Quality: entity.QualityMetrics{
			Measured:   true,
			Blur:       120.5,
			Brightness: 0.8,
			Width:      1200,
			Height:     1600,
			Megapixels: 1.92,
		},
		RecognitionConfidence: 0.95,
		AttemptCount:          1,
		Vendor:                "Acme Supply Co",
		InvoiceDate:           "2024-03-15",
		LineItemCount:         2,
		ArbitrationConfidence: 74,
		OverallScore:          0.91,
		FieldTotal:            0.97,
		OK:                    true,
		Status:                "high",
		ProcessingMs:          12,
	}
}

// describeRunStore runs the shared store contract against whatever open
// returns.
func describeRunStore(name string, open func(dir string) repository.RunStore) {
	Describe(name, func() {
		var (
			ctx   context.Context
			store repository.RunStore
			base  time.Time
		)

		BeforeEach(func() {
			ctx = context.Background()
			store = open(GinkgoT().TempDir())
			base = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
			DeferCleanup(func() {
				Expect(store.Close()).To(Succeed())
			})
		})

		When("a run is recorded", func() {
			var run entity.PipelineRun

			JustBeforeEach(func() {
				Expect(store.Record(ctx, run)).To(Succeed())
			})

			Context("with a total", func() {
				BeforeEach(func() {
					run = newRun(base, "acme.txt")
					total := int64(24500)
					run.TotalCents = &total
				})

				It("reads back the same record", func() {
					got, err := store.Get(ctx, run.ID)
					Expect(err).NotTo(HaveOccurred())
					Expect(got.ID).To(Equal(run.ID))
					Expect(got.CreatedAt).To(BeTemporally("==", run.CreatedAt))
					Expect(got.Filename).To(Equal("acme.txt"))
					Expect(got.Vendor).To(Equal("Acme Supply Co"))
					Expect(got.Quality.Width).To(Equal(1200))
					Expect(got.Quality.Measured).To(BeTrue())
					Expect(got.ArbitrationConfidence).To(Equal(74))
					Expect(got.OK).To(BeTrue())
					Expect(got.TotalCents).NotTo(BeNil())
					Expect(*got.TotalCents).To(Equal(int64(24500)))
				})

				It("refuses to record the same id twice", func() {
					err := store.Record(ctx, run)
					Expect(errors.Is(err, repository.ErrAlreadyRecorded)).To(BeTrue())

					n, err := store.Count(ctx)
					Expect(err).NotTo(HaveOccurred())
					Expect(n).To(Equal(1))
				})
			})

			Context("without a total", func() {
				BeforeEach(func() {
					run = newRun(base, "blank.png")
					run.OK = false
					run.Status = "failed"
					run.FailureReasons = "NO_TEXT"
					run.ErrorMessage = "no text recognized"
				})

				It("keeps the total absent", func() {
					got, err := store.Get(ctx, run.ID)
					Expect(err).NotTo(HaveOccurred())
					Expect(got.TotalCents).To(BeNil())
					Expect(got.OK).To(BeFalse())
					Expect(got.FailureReasons).To(Equal("NO_TEXT"))
					Expect(got.ErrorMessage).To(Equal("no text recognized"))
				})
			})
		})

		When("several runs are recorded", func() {
			var runs []entity.PipelineRun

			BeforeEach(func() {
				runs = nil
				for i, name := range []string{"first.txt", "second.txt", "third.txt"} {
					r := newRun(base.Add(time.Duration(i)*time.Minute), name)
					runs = append(runs, r)
				}
				// Recorded out of order; listing still sorts by creation time.
				for _, i := range []int{1, 2, 0} {
					Expect(store.Record(ctx, runs[i])).To(Succeed())
				}
			})

			It("lists newest first", func() {
				got, err := store.ListRecent(ctx, 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(HaveLen(3))
				Expect(got[0].Filename).To(Equal("third.txt"))
				Expect(got[1].Filename).To(Equal("second.txt"))
				Expect(got[2].Filename).To(Equal("first.txt"))
			})

			It("honours the limit", func() {
				got, err := store.ListRecent(ctx, 2)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(HaveLen(2))
				Expect(got[0].Filename).To(Equal("third.txt"))
			})

			It("counts every run", func() {
				n, err := store.Count(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(n).To(Equal(3))
			})
		})

		It("reports a missing run as not found", func() {
			_, err := store.Get(ctx, uuid.New())
			Expect(errors.Is(err, common.ErrNotFound)).To(BeTrue())
		})

		It("starts empty", func() {
			n, err := store.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())

			got, err := store.ListRecent(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})
	})
}

var _ = Describe("RunStore", func() {
	describeRunStore("sqlite", func(dir string) repository.RunStore {
		store, err := repository.OpenRunStore(context.Background(), common.StoreConfig{
			Driver: repository.DriverSQLite,
			DSN:    "file:" + filepath.Join(dir, "runs.db"),
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		return store
	})

	describeRunStore("bolt", func(dir string) repository.RunStore {
		store, err := repository.OpenRunStore(context.Background(), common.StoreConfig{
			Driver: repository.DriverBolt,
			DSN:    filepath.Join(dir, "runs.bolt"),
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		return store
	})
})

var _ = Describe("OpenRunStore", func() {
	It("discards records when no driver is set", func() {
		store, err := repository.OpenRunStore(context.Background(), common.StoreConfig{}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(store).To(BeAssignableToTypeOf(repository.DiscardStore{}))

		run := newRun(time.Now(), "x.txt")
		Expect(store.Record(context.Background(), run)).To(Succeed())
		_, err = store.Get(context.Background(), run.ID)
		Expect(errors.Is(err, common.ErrNotFound)).To(BeTrue())
	})

	It("rejects an unknown driver", func() {
		_, err := repository.OpenRunStore(context.Background(), common.StoreConfig{Driver: "mongo"}, nil)
		Expect(errors.Is(err, common.ErrInvalidInput)).To(BeTrue())

		var appErr *common.AppError
		Expect(errors.As(err, &appErr)).To(BeTrue())
		Expect(appErr.Code).To(Equal("STORE_DRIVER"))
	})

	It("reopens an existing sqlite database without recreating the table", func() {
		ctx := context.Background()
		cfg := common.StoreConfig{
			Driver: repository.DriverSQLite,
			DSN:    "file:" + filepath.Join(GinkgoT().TempDir(), "runs.db"),
		}
		store, err := repository.OpenRunStore(ctx, cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		run := newRun(time.Now(), "first.txt")
		Expect(store.Record(ctx, run)).To(Succeed())
		Expect(store.Close()).To(Succeed())

		store, err = repository.OpenRunStore(ctx, cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		got, err := store.Get(ctx, run.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Filename).To(Equal("first.txt"))
		Expect(store.Count(ctx)).To(Equal(1))
	})

	It("fails to open a bolt file in a missing directory", func() {
		_, err := repository.OpenRunStore(context.Background(), common.StoreConfig{
			Driver: repository.DriverBolt,
			DSN:    filepath.Join(GinkgoT().TempDir(), "missing", "runs.bolt"),
		}, nil)
		Expect(err).To(HaveOccurred())
	})
})
