package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// PageSegMode is a page-segmentation configuration, numbered as tesseract
// numbers them.
type PageSegMode int

const (
	ModeAutoOSD      PageSegMode = 1
	ModeAuto         PageSegMode = 3
	ModeSingleColumn PageSegMode = 4
	ModeUniformBlock PageSegMode = 6
	ModeSparse       PageSegMode = 11
)

// DefaultModes is the order segmentation modes are tried in.
var DefaultModes = []PageSegMode{ModeUniformBlock, ModeSingleColumn, ModeAuto, ModeSparse, ModeAutoOSD}

func (m PageSegMode) String() string {
	switch m {
	case ModeAutoOSD:
		return "auto_osd"
	case ModeAuto:
		return "auto"
	case ModeSingleColumn:
		return "single_column"
	case ModeUniformBlock:
		return "uniform_block"
	case ModeSparse:
		return "sparse"
	default:
		return "psm_" + strconv.Itoa(int(m))
	}
}

// Request is one recognition call against an image already on disk.
type Request struct {
	ImagePath string
	Mode      PageSegMode
	Language  string
}

// Transcript is the uniform engine result. Confidence is in [0,1].
type Transcript struct {
	Text       string
	Confidence float64
}

// RecognitionEngine turns an image into text.
type RecognitionEngine interface {
	Name() string
	Recognize(ctx context.Context, req Request) (Transcript, error)
}

// Segmenter is implemented by engines that honor PageSegMode. Engines that
// do not are tried once per variant.
type Segmenter interface {
	SupportsSegmentation() bool
}

func supportsSegmentation(e RecognitionEngine) bool {
	s, ok := e.(Segmenter)
	return ok && s.SupportsSegmentation()
}

// EngineConfig carries settings for every engine the registry can build.
type EngineConfig struct {
	TesseractPath string
	TessdataDir   string
	Language      string
	OEM           int
	Runner        Runner

	AzureEndpoint string
	AzureKey      string

	GeminiKey   string
	GeminiModel string
}

// Factory builds an engine from configuration.
type Factory func(cfg EngineConfig, logger *slog.Logger) (RecognitionEngine, error)

// builtinFactories is filled by the engine files at init, including ones
// behind build tags.
var builtinFactories = map[string]Factory{}

func registerBuiltin(name string, f Factory) {
	builtinFactories[name] = f
}

// Registry selects engines by name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry preloaded with the compiled-in engines.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory, len(builtinFactories))}
	for name, f := range builtinFactories {
		r.factories[name] = f
	}
	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build instantiates the named engines in order.
func (r *Registry) Build(names []string, cfg EngineConfig, logger *slog.Logger) ([]RecognitionEngine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engines := make([]RecognitionEngine, 0, len(names))
	for _, name := range names {
		f, ok := r.factories[name]
		if !ok {
			return nil, common.NewAppError("ENGINE_UNKNOWN", fmt.Sprintf("recognition engine %q is not available (have %v)", name, r.namesLocked()), common.ErrEngineUnavailable)
		}
		e, err := f(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("building engine %s: %w", name, err)
		}
		engines = append(engines, e)
	}
	return engines, nil
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
