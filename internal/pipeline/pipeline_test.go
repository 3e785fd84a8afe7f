package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

const syscoInvoice = `Sysco Foods LLC
1200 Harbor Blvd
Oakland, CA 94607
Invoice # INV-2045
Date: 03/14/2024
Tomatoes case 2 50.00 100.00
Chicken breast 1 145.00 145.00
Total $245.00`

type recordingRecorder struct {
	mu    sync.Mutex
	runs  []entity.PipelineRun
	err   error
	panic bool
}

func (r *recordingRecorder) Record(_ context.Context, run entity.PipelineRun) error {
	r.mu.Lock()
	r.runs = append(r.runs, run)
	r.mu.Unlock()
	if r.panic {
		panic("recorder exploded")
	}
	return r.err
}

func (r *recordingRecorder) all() []entity.PipelineRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.PipelineRun(nil), r.runs...)
}

type stubRecognizer struct {
	outcome ocr.Outcome
	err     error
	panic   bool
	calls   int
}

func (s *stubRecognizer) Recognize(context.Context, image.Image) (ocr.Outcome, error) {
	s.calls++
	if s.panic {
		panic("engine exploded")
	}
	return s.outcome, s.err
}

func pngBytes(w, h int) []byte {
	var buf bytes.Buffer
	Expect(imaging.Encode(&buf, imaging.New(w, h, color.White), imaging.PNG)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Pipeline", func() {
	var (
		recorder   *recordingRecorder
		recognizer *stubRecognizer
		p          *Pipeline
		input      Input
		result     Result
		started    time.Time
	)

	BeforeEach(func() {
		started = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)
		recorder = &recordingRecorder{}
		recognizer = &stubRecognizer{}
		input = Input{}
	})

	JustBeforeEach(func() {
		p = New(recognizer, WithRecorder(recorder), WithClock(func() time.Time { return started }))
		result = p.Run(context.Background(), input)
	})

	It("writes exactly one run record", func() {
		runs := recorder.all()
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].ID).To(Equal(result.RunID))
		Expect(runs[0].CreatedAt).To(Equal(started))
	})

	When("given invoice text", func() {
		BeforeEach(func() {
			input = Input{Text: syscoInvoice, Filename: "sysco.txt", VendorKey: "sysco"}
		})

		It("extracts and scores the invoice", func() {
			Expect(result.OK).To(BeTrue())
			Expect(result.FailureReasons).To(BeEmpty())
			Expect(result.Error).To(BeEmpty())
			Expect(result.Extracted.Vendor).To(Equal("Sysco Foods LLC"))
			Expect(result.Extracted.Totals.Total).NotTo(BeNil())
			Expect(*result.Extracted.Totals.Total).To(Equal(int64(24500)))
			Expect(result.Extracted.LineItems).To(HaveLen(2))
			Expect(result.Confidence.Status).To(Equal(constants.StatusSuccess))
			Expect(result.Confidence.RecognitionScore).To(Equal(textLayerConfidence))
			Expect(result.Quality.Measured).To(BeFalse())
			Expect(result.Attempts).To(BeEmpty())
			Expect(result.Arbitration).NotTo(BeNil())
			Expect(recognizer.calls).To(BeZero())
		})

		It("records the run", func() {
			run := recorder.all()[0]
			Expect(run.OK).To(BeTrue())
			Expect(run.SourceFormat).To(Equal(string(constants.FormatText)))
			Expect(run.Stage).To(Equal(string(constants.StageComplete)))
			Expect(run.VendorKey).To(Equal("sysco"))
			Expect(run.TotalCents).NotTo(BeNil())
			Expect(*run.TotalCents).To(Equal(int64(24500)))
			Expect(run.LineItemCount).To(Equal(2))
			Expect(run.Status).To(Equal(string(constants.StatusSuccess)))
			Expect(run.FailureReasons).To(BeEmpty())
		})
	})

	When("given text bytes", func() {
		BeforeEach(func() {
			input = Input{Data: []byte(syscoInvoice), Filename: "sysco.txt"}
		})

		It("sniffs the format and fingerprints the bytes", func() {
			Expect(result.OK).To(BeTrue())
			run := recorder.all()[0]
			Expect(run.MimeType).To(Equal("text/plain"))
			Expect(run.SHA256).To(HaveLen(64))
			Expect(run.FileSize).To(Equal(int64(len(syscoInvoice))))
		})
	})

	When("given a base64 data url", func() {
		BeforeEach(func() {
			input = Input{Base64: "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte(syscoInvoice))}
		})

		It("decodes the payload", func() {
			Expect(result.OK).To(BeTrue())
			Expect(result.Extracted.InvoiceNumber).To(Equal("INV-2045"))
		})
	})

	When("the input is empty", func() {
		It("fails as unsupported", func() {
			Expect(result.OK).To(BeFalse())
			Expect(result.FailureReasons).To(Equal([]constants.FailureReason{constants.FailureUnsupportedFormat}))
			Expect(result.Confidence.Status).To(Equal(constants.StatusLowConfidence))
			Expect(result.Tips).To(HaveLen(1))
		})
	})

	When("the input is too small", func() {
		BeforeEach(func() {
			input = Input{Data: []byte("tiny")}
		})

		It("stops at intake", func() {
			Expect(result.OK).To(BeFalse())
			Expect(result.FailureReasons).To(ConsistOf(constants.FailureUnsupportedFormat))
			Expect(result.Error).To(ContainSubstring("INPUT_TOO_SMALL"))
			Expect(recorder.all()[0].Stage).To(Equal(string(constants.StageIntake)))
		})
	})

	When("the bytes are not a supported format", func() {
		BeforeEach(func() {
			input = Input{Data: bytes.Repeat([]byte{0x00, 0xFF, 0x13}, 100)}
		})

		It("fails as unsupported", func() {
			Expect(result.FailureReasons).To(ConsistOf(constants.FailureUnsupportedFormat))
			Expect(result.Error).To(ContainSubstring("UNSUPPORTED_FORMAT"))
		})
	})

	When("the base64 payload is malformed", func() {
		BeforeEach(func() {
			input = Input{Base64: "data:text/plain,hello"}
		})

		It("fails as unsupported", func() {
			Expect(result.FailureReasons).To(ConsistOf(constants.FailureUnsupportedFormat))
			Expect(result.Error).To(ContainSubstring("INVALID_ENCODING"))
		})
	})

	When("the transcript is too short", func() {
		BeforeEach(func() {
			input = Input{Text: "hello"}
		})

		It("reports no text", func() {
			Expect(result.OK).To(BeFalse())
			Expect(result.FailureReasons).To(ConsistOf(constants.FailureNoText))
			Expect(result.Extracted.LineItems).NotTo(BeNil())
		})
	})

	When("the invoice has no line items", func() {
		BeforeEach(func() {
			input = Input{Text: "Acme Co\nInvoice # A-100\nTotal $50.00\nThank you for your business"}
		})

		It("records the reason without failing the run", func() {
			Expect(result.OK).To(BeTrue())
			Expect(result.FailureReasons).To(ConsistOf(constants.FailureLineItemsNotDetected))
			Expect(result.Tips).To(HaveLen(1))
		})
	})

	When("only unlabeled amounts are present", func() {
		BeforeEach(func() {
			input = Input{Text: "Fresh Farms\nTomatoes 12.50\nOnions 8.25\nLettuce 22.00\nPeppers 15.75\nGarlic 4.10"}
		})

		It("takes the total from arbitration and notes why", func() {
			Expect(result.Arbitration).NotTo(BeNil())
			Expect(result.Arbitration.ShouldOverride).To(BeTrue())
			Expect(result.Extracted.Totals.Total).NotTo(BeNil())
			Expect(*result.Extracted.Totals.Total).To(Equal(*result.Arbitration.TotalCents))
			Expect(strings.Join(result.Extracted.Notes, "\n")).To(ContainSubstring("total set by arbitration"))
			Expect(recorder.all()[0].TotalOverridden).To(BeTrue())
		})
	})

	When("given an image", func() {
		BeforeEach(func() {
			input = Input{Data: pngBytes(800, 1000), Filename: "scan.png"}
			recognizer.outcome = ocr.Outcome{
				Text:        syscoInvoice,
				Confidence:  0.9,
				BestVariant: "high_contrast",
				BestEngine:  "tesseract",
				Attempts: []entity.Attempt{
					{VariantName: "original", Engine: "tesseract", Failed: true},
					{VariantName: "high_contrast", Engine: "tesseract", Score: 90},
				},
			}
		})

		It("measures quality and recognizes the text", func() {
			Expect(recognizer.calls).To(Equal(1))
			Expect(result.Quality.Measured).To(BeTrue())
			Expect(result.Quality.Width).To(Equal(800))
			Expect(result.FailureReasons).To(ContainElement(constants.FailureTooBlurry))
			Expect(result.Attempts).To(HaveLen(2))
			Expect(result.Extracted.Vendor).To(Equal("Sysco Foods LLC"))
			Expect(result.Confidence.RecognitionScore).To(Equal(0.9))

			run := recorder.all()[0]
			Expect(run.SourceFormat).To(Equal(string(constants.FormatImage)))
			Expect(run.BestVariant).To(Equal("high_contrast"))
			Expect(run.AttemptCount).To(Equal(2))
			Expect(run.Quality.Measured).To(BeTrue())
		})

		When("recognition fails", func() {
			BeforeEach(func() {
				recognizer.err = errors.New("all attempts failed")
			})

			It("reports no text", func() {
				Expect(result.OK).To(BeFalse())
				Expect(result.FailureReasons).To(ContainElement(constants.FailureNoText))
				Expect(result.Error).To(Equal("all attempts failed"))
				Expect(recorder.all()[0].Stage).To(Equal(string(constants.StageRecognition)))
			})
		})

		When("recognition panics", func() {
			BeforeEach(func() {
				recognizer.panic = true
			})

			It("converts the panic into a processing error", func() {
				Expect(result.OK).To(BeFalse())
				Expect(result.FailureReasons).To(ContainElement(constants.FailureProcessingError))
				Expect(result.Error).To(ContainSubstring("engine exploded"))
				Expect(recorder.all()).To(HaveLen(1))
			})
		})
	})

	When("the recorder fails", func() {
		BeforeEach(func() {
			input = Input{Text: syscoInvoice}
			recorder.err = errors.New("database is down")
		})

		It("still returns the result", func() {
			Expect(result.OK).To(BeTrue())
			Expect(recorder.all()).To(HaveLen(1))
		})
	})

	When("the recorder panics", func() {
		BeforeEach(func() {
			input = Input{Text: syscoInvoice}
			recorder.panic = true
		})

		It("still returns the result", func() {
			Expect(result.OK).To(BeTrue())
			Expect(result.FailureReasons).To(BeEmpty())
		})
	})
})

var _ = Describe("Pipeline without a recognizer", func() {
	It("cannot read images", func() {
		recorder := &recordingRecorder{}
		p := New(nil, WithRecorder(recorder))
		res := p.Run(context.Background(), Input{Data: pngBytes(800, 1000)})

		Expect(res.OK).To(BeFalse())
		Expect(res.FailureReasons).To(ContainElement(constants.FailureNoText))
		Expect(recorder.all()).To(HaveLen(1))
	})

	It("honors a custom ok threshold", func() {
		p := New(nil, WithOKThreshold(0.99))
		res := p.Run(context.Background(), Input{Text: syscoInvoice})
		Expect(res.OK).To(BeFalse())
		Expect(res.FailureReasons).To(BeEmpty())
	})
})

var _ = Describe("decodeBase64", func() {
	It("accepts padded and unpadded payloads", func() {
		data, declared, err := decodeBase64("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("abcd")))
		Expect(err).NotTo(HaveOccurred())
		Expect(declared).To(Equal("image/png"))
		Expect(string(data)).To(Equal("abcd"))

		data, _, err = decodeBase64(base64.RawStdEncoding.EncodeToString([]byte("abcd")))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("abcd"))

		_, _, err = decodeBase64("data:text/plain;base64")
		Expect(err).To(HaveOccurred())
	})
})
