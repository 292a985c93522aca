package placement

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/adgeletti/internal/ads/catalog"
	apperrors "github.com/louisbranch/adgeletti/internal/platform/errors"
)

const tracerName = "github.com/louisbranch/adgeletti/internal/ads/placement"

// State is where a Session sits in the declare/resolve protocol.
type State int

const (
	// StateEmpty means nothing has been declared yet.
	StateEmpty State = iota
	// StateCollecting means placeholders are being declared.
	StateCollecting
	// StateResolved means Resolve ran; it is terminal for the render.
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateCollecting:
		return "collecting"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Config binds a Session to the site being rendered and its catalog.
type Config struct {
	SiteID    string
	NetworkID string
	Lookup    catalog.Lookup
}

// Session is the render-scoped placeholder state for one page. Create one per
// render and never share it between renders; it is not safe for concurrent
// use.
type Session struct {
	cfg      Config
	registry *registry
	fired    bool
}

// NewSession returns a Session in the empty state.
func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg}
}

// State reports the protocol state.
func (s *Session) State() State {
	switch {
	case s.registry == nil:
		return StateEmpty
	case s.fired:
		return StateResolved
	default:
		return StateCollecting
	}
}

// Declaration is the output of one Declare call: either the placeholders that
// were new to this render, or a diagnostic.
type Declaration struct {
	Placeholders []Placeholder
	Diagnostic   string
}

// HTML renders the placeholder divs, or the diagnostic comment.
func (d Declaration) HTML() string {
	if d.Diagnostic != "" {
		return Comment(d.Diagnostic)
	}
	var b strings.Builder
	for _, p := range d.Placeholders {
		b.WriteString(p.HTML())
	}
	return b.String()
}

// Declare registers the tag's (slot, breakpoint) pairs. Pairs already seen in
// this render produce no markup. After Resolve, Declare only returns a
// diagnostic. A tag without breakpoints declares nothing and leaves the
// session state unchanged.
func (s *Session) Declare(tag AdTag) Declaration {
	if s.fired {
		return Declaration{Diagnostic: MsgDeclaredAfterResolve}
	}
	if len(tag.Breakpoints) == 0 {
		return Declaration{}
	}
	if s.registry == nil {
		s.registry = newRegistry()
	}
	var out Declaration
	for _, breakpoint := range tag.Breakpoints {
		if p, added := s.registry.add(tag.Slot, breakpoint); added {
			out.Placeholders = append(out.Placeholders, p)
		}
	}
	return out
}

// Resolution is the output of Resolve. Diagnostics explain a rejected call,
// in which case Block is nil. Otherwise Block is present even with zero
// records.
type Resolution struct {
	Diagnostics []string
	Block       *Block
}

// HTML renders diagnostics as comments followed by the script block.
func (r Resolution) HTML() (string, error) {
	var b strings.Builder
	for _, d := range r.Diagnostics {
		b.WriteString(Comment(d))
	}
	if r.Block != nil {
		if _, err := r.Block.WriteTo(&b); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// Resolve matches the declared placeholders against the catalog and builds
// the data block. Only the first call on a collecting session does work;
// every other call returns a diagnostic and leaves the session unchanged.
//
// A failing catalog lookup is returned as an error rather than a diagnostic.
// The session is still marked resolved.
func (s *Session) Resolve(ctx context.Context) (Resolution, error) {
	switch s.State() {
	case StateEmpty:
		return Resolution{Diagnostics: []string{MsgResolveWithoutAds}}, nil
	case StateResolved:
		return Resolution{Diagnostics: []string{MsgResolvedTwice}}, nil
	}
	s.fired = true

	if ctx == nil {
		ctx = context.Background()
	}
	slots := append([]string(nil), s.registry.slots...)
	breakpoints := append([]string(nil), s.registry.breakpoints...)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "placement.Resolve",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("adgeletti.site_id", s.cfg.SiteID),
			attribute.Int("adgeletti.slot_count", len(slots)),
			attribute.Int("adgeletti.breakpoint_count", len(breakpoints)),
		),
	)
	defer span.End()

	positions, err := s.lookup(ctx, slots, breakpoints)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "catalog lookup failed")
		return Resolution{}, err
	}

	block := &Block{Records: []Record{}}
	if len(slots) > 0 && len(positions) == 0 {
		block.Notes = append(block.Notes, MsgNoPositions(slots))
	}
	for _, position := range positions {
		divID, ok := s.registry.divID(position.Slot, position.Breakpoint)
		if !ok {
			continue
		}
		sizes := make([]SizePair, 0, len(position.Sizes))
		for _, size := range position.Sizes {
			sizes = append(sizes, SizePair{size.Width, size.Height})
		}
		block.Records = append(block.Records, Record{
			Breakpoint: position.Breakpoint,
			AdUnitID:   position.AdUnitID(s.cfg.NetworkID),
			Sizes:      sizes,
			DivID:      divID,
		})
	}
	span.SetAttributes(attribute.Int("adgeletti.record_count", len(block.Records)))
	return Resolution{Block: block}, nil
}

func (s *Session) lookup(ctx context.Context, slots, breakpoints []string) ([]catalog.Position, error) {
	if s.cfg.Lookup == nil {
		return nil, apperrors.New(apperrors.CodeCatalogUnavailable, "catalog lookup is not configured")
	}
	positions, err := s.cfg.Lookup.FindPositions(ctx, s.cfg.SiteID, slots, breakpoints)
	if err == nil {
		return positions, nil
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return nil, err
	}
	return nil, apperrors.WrapWithMetadata(
		apperrors.CodeCatalogUnavailable,
		"find ad positions",
		map[string]string{"site_id": s.cfg.SiteID},
		err,
	)
}
