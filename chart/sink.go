package chart

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Sink receives rendered plots. name is a file-safe base name without
// extension, e.g. "decision_tree_boxplot".
type Sink interface {
	Save(name string, p *plot.Plot) error
}

// Default image size.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

var supportedFormats = map[string]bool{"png": true, "svg": true, "pdf": true}

// DirSink writes each plot as Dir/name.Format.
type DirSink struct {
	Dir    string
	Format string // png, svg or pdf; default png
	Width  vg.Length
	Height vg.Length
}

// Save renders p into the sink's directory, creating it if needed.
func (s DirSink) Save(name string, p *plot.Plot) error {
	format := strings.ToLower(strings.TrimPrefix(s.Format, "."))
	if format == "" {
		format = "png"
	}
	if !supportedFormats[format] {
		return errors.NewValidationError("format", "must be png, svg or pdf", s.Format)
	}
	w, h := s.Width, s.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return errors.Wrapf(err, "create chart directory %s", s.Dir)
		}
	}
	path := filepath.Join(s.Dir, name+"."+format)
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "save chart %s", path)
	}
	return nil
}

type discard struct{}

func (discard) Save(string, *plot.Plot) error { return nil }

// Discard drops every plot.
var Discard Sink = discard{}

// Recorder keeps plots in memory, keyed by name. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	names []string
	plots map[string]*plot.Plot
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{plots: make(map[string]*plot.Plot)}
}

// Save stores p under name, replacing any earlier plot with that name.
func (r *Recorder) Save(name string, p *plot.Plot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plots[name]; !ok {
		r.names = append(r.names, name)
	}
	r.plots[name] = p
	return nil
}

// Names returns the saved names in first-save order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// Get returns the plot saved under name.
func (r *Recorder) Get(name string) (*plot.Plot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plots[name]
	return p, ok
}
