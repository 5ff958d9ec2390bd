// Package tally groups and counts line-oriented records per key.
//
// Every aggregation is built on types.DefaultMap, so a key seen for the first
// time starts from its default (0, an empty set) without an existence check.
// Results can be published to, and resumed from, a SnapshotStorage.
package tally

import (
	"context"
	"errors"
	"io"

	"github.com/gabapcia/tally/internal/pkg/logger"
	"github.com/gabapcia/tally/internal/pkg/resilience/retry"
	"github.com/gabapcia/tally/internal/pkg/validator"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName identifies this package's tracer and meter.
const instrumentationName = "github.com/gabapcia/tally/internal/tally"

var (
	// ErrInvalidRecord is returned when a record value cannot be aggregated.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrStorageNotConfigured is returned when a run asks to resume but no
	// SnapshotStorage was provided.
	ErrStorageNotConfigured = errors.New("snapshot storage not configured")
)

// Request identifies a tally run.
type Request struct {
	// Name is the run name. Snapshots are stored and resumed under it.
	Name string `validate:"required,runname"`

	// Resume seeds the aggregation with the previously stored snapshot.
	Resume bool
}

// Service aggregates records read from an input stream.
type Service interface {
	// Count returns the number of records per key.
	Count(ctx context.Context, req Request, src io.Reader) (map[string]int, error)

	// Group returns the sorted distinct values seen per key.
	Group(ctx context.Context, req Request, src io.Reader) (map[string][]string, error)

	// Sum returns the sum of the numeric values per key.
	Sum(ctx context.Context, req Request, src io.Reader) (map[string]float64, error)
}

// service is the concrete implementation of Service.
type service struct {
	storage SnapshotStorage
	retrier retry.Retry

	tracer  trace.Tracer
	records metric.Int64Counter
	keys    metric.Int64Counter
}

// Ensure compile-time compliance with the Service interface.
var _ Service = (*service)(nil)

// New creates a tally service. storage may be nil, in which case results are
// not published and Resume requests fail with ErrStorageNotConfigured.
func New(storage SnapshotStorage, retrier retry.Retry) (*service, error) {
	meter := otel.Meter(instrumentationName)

	records, err := meter.Int64Counter("tally.records",
		metric.WithDescription("Records aggregated."),
	)
	if err != nil {
		return nil, err
	}

	keys, err := meter.Int64Counter("tally.keys",
		metric.WithDescription("Keys materialized for the first time during a run."),
	)
	if err != nil {
		return nil, err
	}

	return &service{
		storage: storage,
		retrier: retrier,
		tracer:  otel.Tracer(instrumentationName),
		records: records,
		keys:    keys,
	}, nil
}

// run is the per-request state shared by every aggregation.
type run struct {
	ctx     context.Context
	span    trace.Span
	attrs   metric.MeasurementOption
	records int64
	keys    int64
}

// begin validates req, opens a span and derives a logger tagged with a run id.
func (s *service) begin(ctx context.Context, op string, req Request) (*run, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	if req.Resume && s.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	ctx, span := s.tracer.Start(ctx, "tally."+op, trace.WithAttributes(
		attribute.String("tally.name", req.Name),
		attribute.Bool("tally.resume", req.Resume),
	))

	ctx = logger.Derive(ctx, "run_id", uuid.NewString(), "op", op, "name", req.Name)
	logger.Debug(ctx, "tally started", "resume", req.Resume)

	return &run{
		ctx:   ctx,
		span:  span,
		attrs: metric.WithAttributes(attribute.String("tally.op", op)),
	}, nil
}

// end records the run outcome on the span, metrics and log.
func (s *service) end(r *run, err error) {
	defer r.span.End()

	s.records.Add(r.ctx, r.records, r.attrs)
	s.keys.Add(r.ctx, r.keys, r.attrs)

	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
		logger.Error(r.ctx, "tally failed", "records", r.records, "error", err)
		return
	}

	logger.Info(r.ctx, "tally finished", "records", r.records, "new_keys", r.keys)
}

// publish stores a snapshot through save, retrying transient failures. It is a
// no-op without storage.
func (s *service) publish(r *run, save func(ctx context.Context) error) error {
	if s.storage == nil {
		return nil
	}

	return s.retrier.Execute(r.ctx, func() error {
		err := save(r.ctx)
		if err != nil {
			logger.Warn(r.ctx, "publishing snapshot failed", "error", err)
		}
		return err
	})
}
