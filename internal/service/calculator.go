package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/daigou/internal/domain"
	"github.com/dukerupert/daigou/internal/freight"
	"github.com/dukerupert/daigou/internal/pricing"
	"github.com/dukerupert/daigou/internal/telemetry"
	"github.com/dukerupert/daigou/internal/worksheet"
	"github.com/google/uuid"
)

// CalculatorService provides the worksheet workflow and stateless quotes.
type CalculatorService interface {
	// Worksheet returns the sheet for sessionID, creating one (and a new
	// session id) when sessionID is empty, malformed or unknown.
	Worksheet(ctx context.Context, sessionID string) (*Worksheet, error)
	SaveDraft(ctx context.Context, sessionID string, rows []pricing.LineItemInput) error
	AddRow(ctx context.Context, sessionID string) (*Worksheet, error)
	RemoveRow(ctx context.Context, sessionID string, index int) (*Worksheet, error)
	Commit(ctx context.Context, sessionID string) (*Worksheet, error)

	// Discard throws away draft edits and restores the committed rows.
	Discard(ctx context.Context, sessionID string) (*Worksheet, error)
	SetParams(ctx context.Context, sessionID string, params pricing.Params) error

	// Calculate prices the committed rows with the sheet's parameters.
	// Draft edits are ignored until committed.
	Calculate(ctx context.Context, sessionID string) (*pricing.Result, error)

	// Quote prices items without touching any worksheet.
	Quote(ctx context.Context, items []pricing.LineItemInput, params pricing.Params) (*pricing.Result, error)

	Tariff() *freight.Tariff
	Defaults() pricing.Params

	// PruneIdle drops worksheets not used within olderThan.
	PruneIdle(ctx context.Context, olderThan time.Duration) int
}

// Worksheet is a point-in-time view of a session's sheet.
type Worksheet struct {
	SessionID string
	IsNew     bool
	Draft     []pricing.LineItemInput
	Committed []pricing.LineItemInput
	Params    pricing.Params
	Dirty     bool
}

type calculatorService struct {
	store   *worksheet.Store
	engine  *pricing.Engine
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewCalculatorService creates a CalculatorService. metrics may be nil.
func NewCalculatorService(store *worksheet.Store, engine *pricing.Engine, metrics *telemetry.BusinessMetrics, logger *slog.Logger) CalculatorService {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = pricing.NewEngine(nil)
	}

	return &calculatorService{
		store:   store,
		engine:  engine,
		metrics: metrics,
		logger:  logger.With("service", "calculator"),
	}
}

func (s *calculatorService) Worksheet(ctx context.Context, sessionID string) (*Worksheet, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		sessionID = uuid.NewString()
	}

	sheet, created := s.store.GetOrCreate(sessionID)
	if created {
		s.logger.DebugContext(ctx, "worksheet created", "session_id", sessionID)
	}

	view := snapshot(sessionID, sheet)
	view.IsNew = created
	return view, nil
}

func (s *calculatorService) SaveDraft(ctx context.Context, sessionID string, rows []pricing.LineItemInput) error {
	sheet, err := s.sheet(sessionID)
	if err != nil {
		return err
	}

	sheet.SetDraft(rows)
	s.metrics.ObserveEdit("save")
	return nil
}

func (s *calculatorService) AddRow(ctx context.Context, sessionID string) (*Worksheet, error) {
	sheet, err := s.sheet(sessionID)
	if err != nil {
		return nil, err
	}

	sheet.AddRow()
	s.metrics.ObserveEdit("add_row")
	return snapshot(sessionID, sheet), nil
}

func (s *calculatorService) RemoveRow(ctx context.Context, sessionID string, index int) (*Worksheet, error) {
	sheet, err := s.sheet(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sheet.RemoveRow(index); err != nil {
		return nil, err
	}
	s.metrics.ObserveEdit("remove_row")
	return snapshot(sessionID, sheet), nil
}

func (s *calculatorService) Commit(ctx context.Context, sessionID string) (*Worksheet, error) {
	sheet, err := s.sheet(sessionID)
	if err != nil {
		return nil, err
	}

	n := sheet.Submit()
	s.metrics.ObserveCommit()
	telemetry.AddBreadcrumb(ctx, "worksheet", "draft committed", map[string]interface{}{"rows": n})
	s.logger.DebugContext(ctx, "worksheet committed", "session_id", sessionID, "rows", n)

	return snapshot(sessionID, sheet), nil
}

func (s *calculatorService) Discard(ctx context.Context, sessionID string) (*Worksheet, error) {
	sheet, err := s.sheet(sessionID)
	if err != nil {
		return nil, err
	}

	sheet.Discard()
	s.metrics.ObserveEdit("discard")
	return snapshot(sessionID, sheet), nil
}

func (s *calculatorService) SetParams(ctx context.Context, sessionID string, params pricing.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	sheet, err := s.sheet(sessionID)
	if err != nil {
		return err
	}

	sheet.SetParams(params)
	s.metrics.ObserveEdit("params")
	return nil
}

func (s *calculatorService) Calculate(ctx context.Context, sessionID string) (*pricing.Result, error) {
	sheet, err := s.sheet(sessionID)
	if err != nil {
		return nil, err
	}

	return s.compute(ctx, telemetry.SourceWorksheet, sheet.Committed(), sheet.Params(), "session_id", sessionID)
}

func (s *calculatorService) Quote(ctx context.Context, items []pricing.LineItemInput, params pricing.Params) (*pricing.Result, error) {
	return s.compute(ctx, telemetry.SourceAPI, items, params)
}

func (s *calculatorService) Tariff() *freight.Tariff {
	return s.engine.Tariff()
}

func (s *calculatorService) Defaults() pricing.Params {
	return s.store.Defaults()
}

func (s *calculatorService) PruneIdle(ctx context.Context, olderThan time.Duration) int {
	removed := s.store.Prune(olderThan)
	remaining := s.store.Len()
	s.metrics.ObservePrune(removed, remaining)

	if removed > 0 {
		s.logger.InfoContext(ctx, "idle worksheets pruned", "removed", removed, "remaining", remaining)
	}
	return removed
}

func (s *calculatorService) compute(ctx context.Context, source string, items []pricing.LineItemInput, params pricing.Params, attrs ...any) (*pricing.Result, error) {
	if err := params.Validate(); err != nil {
		s.metrics.ObserveCalculation(source, telemetry.OutcomeInvalid, 0, 0, 0, 0, 0)
		return nil, err
	}

	start := time.Now()
	result, err := s.engine.Compute(items, params)
	elapsed := time.Since(start).Seconds()

	logger := s.logger.With(attrs...).With("source", source, "rows", len(items))

	if errors.Is(err, pricing.ErrEmptyResult) {
		s.metrics.ObserveCalculation(source, telemetry.OutcomeEmpty, elapsed, 0, len(items), 0, 0)
		logger.InfoContext(ctx, "calculation had no priced items")
		return nil, err
	}
	if err != nil {
		return nil, domain.Internal(err, "calculator.compute", "failed to compute quote")
	}

	s.metrics.ObserveCalculation(source, telemetry.OutcomeOK, elapsed, len(result.Items), result.Skipped, result.GrandTotal, result.TotalWeightSum)
	logger.InfoContext(ctx, "calculation completed",
		"items", len(result.Items),
		"skipped", result.Skipped,
		"grand_total", result.GrandTotal,
		"total_weight_kg", result.TotalWeightSum,
	)

	return result, nil
}

// sheet resolves a session id to its sheet, recreating it if the janitor
// dropped it since the request started.
func (s *calculatorService) sheet(sessionID string) (*worksheet.Sheet, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrInvalidSession
	}

	sheet, _ := s.store.GetOrCreate(sessionID)
	return sheet, nil
}

func snapshot(sessionID string, sheet *worksheet.Sheet) *Worksheet {
	return &Worksheet{
		SessionID: sessionID,
		Draft:     sheet.Draft(),
		Committed: sheet.Committed(),
		Params:    sheet.Params(),
		Dirty:     sheet.Dirty(),
	}
}
