// Package viewer holds the per-viewer session state: the currently loaded
// dataset, frame index, and window parameters, and orchestrates re-rendering
// when any of them change.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jpfielding/dicomview.go/pkg/dicom"
	"github.com/jpfielding/dicomview.go/pkg/render"
)

var (
	// ErrFrameIndexOutOfRange is returned by SetFrame for indices outside
	// the loaded dataset's frame count
	ErrFrameIndexOutOfRange = errors.New("viewer: frame index out of range")
	// ErrNoDataset is returned when an operation needs a loaded dataset
	ErrNoDataset = errors.New("viewer: no dataset loaded")
	// ErrLoadInProgress rejects a Load started while a render is running
	ErrLoadInProgress = errors.New("viewer: render in progress")
)

// State is the session lifecycle: Empty -> Loaded -> Rendering -> Loaded
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateRendering:
		return "rendering"
	}
	return "unknown"
}

// Session is a single-viewer session. It is not safe for concurrent use;
// the model is one cooperative execution context per viewer, with each
// pipeline stage a discrete step. Every Load produces a fresh, owned
// dataset and grid set, so a superseding load never corrupts a render
// still reading the previous generation.
type Session struct {
	state   state
	logger  *slog.Logger
	gen     uint64
	palette *render.PaletteLUT
}

// state bundles everything a load produces, swapped atomically on success
type state struct {
	phase  State
	ds     *dicom.Dataset
	desc   *dicom.ImageDescriptor
	grids  []*dicom.SampleGrid
	frame  int
	window render.Window
	id     string
}

// NewSession returns an empty session
func NewSession() *Session {
	return &Session{logger: slog.Default()}
}

// WithLogger replaces the session's logger
func (s *Session) WithLogger(l *slog.Logger) *Session {
	s.logger = l
	return s
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return s.state.phase
}

// ID returns the loaded dataset's fingerprint, empty when no dataset is loaded
func (s *Session) ID() string {
	return s.state.id
}

// FrameCount returns the number of decoded frames
func (s *Session) FrameCount() int {
	return len(s.state.grids)
}

// Frame returns the current frame index
func (s *Session) Frame() int {
	return s.state.frame
}

// Window returns the current window parameters
func (s *Session) Window() render.Window {
	return s.state.window
}

// Descriptor returns the loaded dataset's image descriptor
func (s *Session) Descriptor() *dicom.ImageDescriptor {
	return s.state.desc
}

// Dataset returns the loaded dataset
func (s *Session) Dataset() *dicom.Dataset {
	return s.state.ds
}

// Load parses, indexes, and decodes a DICOM file. On success the session
// is Loaded at frame 0 with the dataset's declared window (or the
// full-range default). On failure the session is Empty and no partial
// dataset is exposed.
//
// The generation check below is inert while Load runs synchronously; it is
// there for hosts that split the parse/describe/decode stages across yield
// points, where a newer Load can start before an older one finishes. A
// stale result is dropped instead of clobbering the newer state.
func (s *Session) Load(data []byte, opts ...dicom.ParseOption) error {
	if s.state.phase == StateRendering {
		return ErrLoadInProgress
	}
	s.gen++
	gen := s.gen

	ds, err := dicom.Parse(data, opts...)
	if err != nil {
		s.reset()
		return fmt.Errorf("loading dataset: %w", err)
	}
	desc, err := dicom.Describe(ds)
	if err != nil {
		s.reset()
		return fmt.Errorf("describing dataset: %w", err)
	}
	grids, err := dicom.DecodeFramesWith(ds, desc)
	if err != nil {
		s.reset()
		return fmt.Errorf("decoding pixel data: %w", err)
	}

	if gen != s.gen {
		// a newer load superseded this one; drop the result
		return nil
	}

	win, ok := render.DeclaredWindow(desc)
	if !ok || !win.Valid() {
		win = render.DefaultWindow(grids[0], desc)
	}

	var palette *render.PaletteLUT
	if desc.PhotometricInterpretation == dicom.PaletteColor {
		palette, err = render.PaletteFromDataset(ds)
		if err != nil {
			s.reset()
			return fmt.Errorf("building palette: %w", err)
		}
	}

	s.state = state{
		phase:  StateLoaded,
		ds:     ds,
		desc:   desc,
		grids:  grids,
		window: win,
		id:     dicom.Fingerprint(ds),
	}
	s.palette = palette
	s.logger.Debug("dataset loaded",
		"id", s.state.id,
		"frames", len(grids),
		"rows", desc.Rows,
		"columns", desc.Columns,
		"photometric", desc.PhotometricInterpretation,
		"syntax", ds.TransferSyntax.Name())
	return nil
}

// SetFrame selects the frame to render. Out-of-range indices fail without
// changing session state.
func (s *Session) SetFrame(i int) error {
	if s.state.phase == StateEmpty {
		return ErrNoDataset
	}
	if i < 0 || i >= len(s.state.grids) {
		return fmt.Errorf("frame %d of %d: %w", i, len(s.state.grids), ErrFrameIndexOutOfRange)
	}
	s.state.frame = i
	return nil
}

// SetWindow overrides the window parameters. A width <= 0 fails without
// changing session state.
func (s *Session) SetWindow(center, width float64) error {
	if s.state.phase == StateEmpty {
		return ErrNoDataset
	}
	win := render.Window{Center: center, Width: width}
	if !win.Valid() {
		return fmt.Errorf("width %v: %w", width, render.ErrInvalidWindowWidth)
	}
	s.state.window = win
	return nil
}

// Render recomputes the RGBA frame for the current (dataset, frame,
// window) triple. Invalid window parameters are recovered in place by
// substituting the full-range default rather than failing the session.
func (s *Session) Render() (*render.Frame, error) {
	if s.state.phase == StateEmpty {
		return nil, ErrNoDataset
	}
	s.state.phase = StateRendering
	defer func() { s.state.phase = StateLoaded }()

	grid := s.state.grids[s.state.frame]
	win := s.state.window
	if !win.Valid() {
		win = render.DefaultWindow(grid, s.state.desc)
		s.state.window = win
	}

	var opts []render.Option
	if s.palette != nil {
		opts = append(opts, render.WithPalette(s.palette))
	}
	return render.Render(grid, s.state.desc, win, opts...)
}

func (s *Session) reset() {
	s.state = state{phase: StateEmpty}
	s.palette = nil
}
