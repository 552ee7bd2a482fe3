package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-dwgimport/internal/fixture"
	"github.com/goliatone/go-dwgimport/internal/layers"
	"github.com/goliatone/go-dwgimport/internal/pipeline"
	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/metrics"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

// Fallback reasons reported to metrics.
const (
	reasonUnavailable = "unavailable"
	reasonNativeError = "native_error"
)

// Orchestrator exposes the two-phase import contract: SurveyLayers for a
// cheap per-layer histogram, then ParseWithLayers for the filtered document.
// The calls are independent; each re-reads the file and holds native
// documents only for its own duration.
//
// Neither call returns an error or panics. Fatal conditions (unreadable
// bytes, a non-DWG extension) yield Success=false; every native failure is
// absorbed into warnings and answered from the fallback fixture.
type Orchestrator struct {
	registry      *native.Registry
	adapter       *native.Adapter
	preference    []string
	probeTimeout  time.Duration
	logger        *zap.Logger
	metrics       metrics.Recorder
	now           func() time.Time
	newID         func() string
	fixtureFS     fs.FS
	fixtureName   string
	fixture       *fixture.Generator
	initialiseErr error
}

// New constructs an Orchestrator. Without options it has an empty provider
// registry, so every call takes the fallback path until providers are
// registered.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:  zap.NewNop(),
		metrics: metrics.Nop(),
		now: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.registry == nil {
		o.registry = native.NewRegistry()
	}
	if o.adapter == nil {
		adapterOptions := []native.AdapterOption{
			native.WithLogger(o.logger.Named("native")),
			native.WithPreference(o.preference...),
			native.WithObserver(o.observeInitialization),
		}
		if o.probeTimeout > 0 {
			adapterOptions = append(adapterOptions, native.WithProbeTimeout(o.probeTimeout))
		}
		o.adapter = native.NewAdapter(o.registry, adapterOptions...)
	}

	if o.fixtureFS != nil {
		name := o.fixtureName
		if name == "" {
			name = fixture.DefaultCatalog
		}
		gen, err := fixture.Load(o.fixtureFS, name)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load fixture catalog: %w", err)
			o.logger.Error("fixture catalog rejected, using bundled catalog", zap.Error(err))
		} else {
			o.fixture = gen
		}
	}
	if o.fixture == nil {
		o.fixture = fixture.Default()
	}
}

// Err reports a configuration problem detected during construction. The
// orchestrator remains usable; it falls back to bundled defaults.
func (o *Orchestrator) Err() error {
	return o.initialiseErr
}

// Registry exposes the provider registry so callers can add providers
// before the first call initializes the adapter.
func (o *Orchestrator) Registry() *native.Registry {
	return o.registry
}

// Init settles native initialization eagerly. Calling it is optional.
func (o *Orchestrator) Init(ctx context.Context) native.Status {
	return o.adapter.Init(ctx)
}

// Status reports the adapter state without initializing.
func (o *Orchestrator) Status() native.Status {
	return o.adapter.Status()
}

// Cleanup releases the native library; the next call initializes again.
func (o *Orchestrator) Cleanup() error {
	return o.adapter.Cleanup()
}

// SurveyLayers scans the whole document, without filtering, and returns one
// LayerInfo per distinct layer sorted by name.
func (o *Orchestrator) SurveyLayers(ctx context.Context, file cad.File) cad.LayerSelectionResult {
	timer := metrics.NewTimer()
	log := o.logger.With(zap.String("operation", metrics.OperationSurvey), zap.String("file", fileName(file)))

	raw, warnings, failure := o.prepare(ctx, file)
	if failure != nil {
		o.finish(metrics.OperationSurvey, metrics.OutcomeFatal, timer, 0)
		log.Warn("survey rejected", zap.String("kind", string(failure.Kind)), zap.String("reason", failure.Message))
		return cad.FailedSurvey(failure)
	}

	var infos []cad.LayerInfo
	library, status := o.adapter.Acquire(ctx)
	if status.Available() {
		doc, err := o.readNative(ctx, library, raw, true)
		if err == nil {
			infos = layers.Survey(doc.entities, doc.layers)
		} else {
			warnings = append(warnings, nativeFailureWarning(status.Provider, err))
			o.metrics.RecordFallback(metrics.OperationSurvey, reasonNativeError)
			log.Warn("native survey failed, using fallback", zap.String("provider", status.Provider), zap.Error(err))
		}
	} else {
		warnings = append(warnings, unavailableWarning(status))
		o.metrics.RecordFallback(metrics.OperationSurvey, reasonUnavailable)
	}
	if infos == nil {
		infos = o.fixture.Survey()
	}

	outcome := outcomeFor(warnings)
	o.finish(metrics.OperationSurvey, outcome, timer, len(warnings))
	log.Debug("survey complete", zap.Int("layers", len(infos)), zap.Int("warnings", len(warnings)), zap.Duration("elapsed", timer.Elapsed()))

	return cad.LayerSelectionResult{
		Success:  true,
		Layers:   infos,
		Warnings: warnings,
	}
}

// ParseWithLayers returns the normalized document restricted to
// selectedLayers. A nil or empty selection keeps every layer.
func (o *Orchestrator) ParseWithLayers(ctx context.Context, file cad.File, selectedLayers []string) cad.ParseResult {
	timer := metrics.NewTimer()
	log := o.logger.With(zap.String("operation", metrics.OperationParse), zap.String("file", fileName(file)))

	raw, warnings, failure := o.prepare(ctx, file)
	if failure != nil {
		o.finish(metrics.OperationParse, metrics.OutcomeFatal, timer, 0)
		log.Warn("parse rejected", zap.String("kind", string(failure.Kind)), zap.String("reason", failure.Message))
		return cad.FailedParse(failure)
	}

	selection := layers.NewSelection(selectedLayers)
	sniffed, _ := cad.SniffVersion(raw)

	var assembled *pipeline.Output
	library, status := o.adapter.Acquire(ctx)
	if status.Available() {
		doc, err := o.readNative(ctx, library, raw, false)
		if err == nil {
			out, buildErr := pipeline.Assemble(pipeline.Input{
				ID:              o.newID(),
				Name:            file.Name(),
				Header:          doc.header,
				Entities:        doc.entities,
				Selection:       selection,
				Now:             o.now(),
				FallbackVersion: sniffed,
			})
			err = buildErr
			if err == nil {
				assembled = &out
			}
		}
		if err != nil {
			warnings = append(warnings, nativeFailureWarning(status.Provider, err))
			o.metrics.RecordFallback(metrics.OperationParse, reasonNativeError)
			log.Warn("native parse failed, using fallback", zap.String("provider", status.Provider), zap.Error(err))
		}
	} else {
		warnings = append(warnings, unavailableWarning(status))
		o.metrics.RecordFallback(metrics.OperationParse, reasonUnavailable)
	}

	if assembled == nil {
		out, err := o.fixture.Generate(fixture.Request{
			ID:        o.newID(),
			Name:      file.Name(),
			Selection: selection,
			Now:       o.now(),
		})
		if err != nil {
			// Unreachable with the bundled catalog.
			warnings = append(warnings, fmt.Sprintf("fallback document could not be built: %v", err))
			out = o.emptyDocument(file.Name())
		}
		assembled = &out
	}

	warnings = append(warnings, assembled.Warnings...)
	for rawType, count := range assembled.Unsupported {
		o.metrics.RecordUnsupported(rawType, count)
	}

	outcome := outcomeFor(warnings)
	o.finish(metrics.OperationParse, outcome, timer, len(warnings))
	log.Debug("parse complete",
		zap.Int("entities", assembled.Data.Len()),
		zap.Strings("layers", assembled.Data.Layers()),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", timer.Elapsed()),
	)

	data := assembled.Data
	return cad.ParseResult{
		Success:  true,
		Data:     &data,
		Warnings: warnings,
	}
}

// prepare enforces the fatal checks and reads the bytes once.
func (o *Orchestrator) prepare(ctx context.Context, file cad.File) ([]byte, []string, *cad.Failure) {
	if file == nil {
		return nil, nil, cad.NewFailure(cad.ErrorKindReadFailure, cad.ErrReadFailure, "no input file supplied")
	}
	if failure := cad.CheckExtension(file.Name()); failure != nil {
		return nil, nil, failure
	}

	raw, err := file.ReadAll(ctx)
	if err != nil {
		return nil, nil, cad.NewFailure(cad.ErrorKindReadFailure, err, "read %s: %v", file.Name(), err)
	}

	var warnings []string
	if !cad.LooksLikeDWG(raw) {
		warnings = append(warnings, fmt.Sprintf("%s does not carry a DWG signature", file.Name()))
	}
	return raw, warnings, nil
}

type nativeDocument struct {
	header   native.Header
	entities []native.RawEntity
	layers   []native.RawLayer
}

// readNative runs one native read/enumerate/release cycle. Panics raised by
// the library are converted to errors; the document is always released.
func (o *Orchestrator) readNative(ctx context.Context, library native.Library, raw []byte, withLayers bool) (out nativeDocument, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out = nativeDocument{}
			err = fmt.Errorf("native parser panicked: %v", recovered)
		}
	}()

	doc, err := library.ReadDocument(ctx, raw)
	if err != nil {
		return nativeDocument{}, fmt.Errorf("read document: %w", err)
	}
	if doc == nil {
		return nativeDocument{}, errors.New("read document: parser returned no document")
	}
	defer func() {
		if releaseErr := library.ReleaseDocument(doc); releaseErr != nil {
			o.logger.Warn("release native document", zap.String("library", library.Name()), zap.Error(releaseErr))
		}
	}()

	entities, err := library.EnumerateEntities(ctx, doc)
	if err != nil {
		return nativeDocument{}, fmt.Errorf("enumerate entities: %w", err)
	}

	var table []native.RawLayer
	if withLayers {
		table, err = library.EnumerateLayers(ctx, doc)
		if err != nil {
			return nativeDocument{}, fmt.Errorf("enumerate layers: %w", err)
		}
	}

	return nativeDocument{
		header:   doc.Header(),
		entities: entities,
		layers:   table,
	}, nil
}

func (o *Orchestrator) emptyDocument(name string) pipeline.Output {
	now := o.now()
	return pipeline.Output{
		Data: cad.MustNewData(cad.DataParams{
			ID:        o.newID(),
			Name:      name,
			Units:     cad.DefaultUnits,
			CreatedAt: now,
			UpdatedAt: now,
		}),
	}
}

func (o *Orchestrator) finish(operation, outcome string, timer metrics.Timer, warnings int) {
	o.metrics.ObserveOperation(operation, outcome, timer.Elapsed())
	o.metrics.RecordWarnings(operation, warnings)
}

func (o *Orchestrator) observeInitialization(status native.Status) {
	result := "ready"
	if !status.Available() {
		result = "degraded"
	}
	o.metrics.RecordInitialization(result)
}

func outcomeFor(warnings []string) string {
	if len(warnings) > 0 {
		return metrics.OutcomeDegraded
	}
	return metrics.OutcomeSuccess
}

func unavailableWarning(status native.Status) string {
	if status.Reason == nil {
		return "native DWG parser unavailable; using fallback document"
	}
	return fmt.Sprintf("native DWG parser unavailable (%v); using fallback document", status.Reason)
}

func nativeFailureWarning(provider string, err error) string {
	return fmt.Sprintf("native DWG parser %s failed: %v; using fallback document", provider, err)
}

func fileName(file cad.File) string {
	if file == nil {
		return ""
	}
	return file.Name()
}
