// Package scheduler coordinates one solver execution: fetch and validate
// the input document, compile the logic program, run the solver, persist
// the artefacts and decode the answer.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniterm/timetabler/internal/asp"
	"github.com/uniterm/timetabler/internal/models"
	"github.com/uniterm/timetabler/internal/solver"
	"github.com/uniterm/timetabler/internal/timegrid"
	"github.com/uniterm/timetabler/pkg/config"
	appErrors "github.com/uniterm/timetabler/pkg/errors"
	"github.com/uniterm/timetabler/pkg/storage"
)

type solverDriver interface {
	Solve(ctx context.Context, program string, budget time.Duration) (*solver.Result, error)
}

// Service runs the compile-solve-decode pipeline for one execution.
type Service struct {
	store     storage.Store
	driver    solverDriver
	cfg       config.SolverConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// New wires the pipeline dependencies.
func New(store storage.Store, driver solverDriver, cfg config.SolverConfig, validate *validator.Validate, logger *zap.Logger) *Service {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, driver: driver, cfg: cfg, validator: validate, logger: logger}
}

// Run executes the pipeline. timeoutOverride, when positive, replaces the
// configured budget. On success the decoded schedule has been written to the
// store together with all solver artefacts.
func (s *Service) Run(ctx context.Context, timeoutOverride time.Duration) (*models.Output, solver.Status, error) {
	body, err := s.store.GetInput(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.ExitCode, "fetch input document")
	}

	input, err := models.ParseInput(body)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.ExitCode, err.Error())
	}
	if err := input.Validate(s.validator); err != nil {
		return nil, "", err
	}

	grid, err := timegrid.New(input.Settings)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.ExitCode, err.Error())
	}

	s.logger.Info("compiling problem",
		zap.Int("sessions", len(input.Sessions)),
		zap.Int("rooms", len(input.Rooms)),
		zap.Int("timeslots", grid.TotalSlots()))

	compiler := &asp.Compiler{
		Grid:                   grid,
		Input:                  input,
		RoomDistanceConstraint: s.cfg.RoomDistanceConstraint,
	}
	program, err := compiler.Compile()
	if err != nil {
		return nil, "", err
	}
	text := program.Text()

	// The program is persisted before solving so failures reproduce.
	if err := s.putText(ctx, "asp_problem", text); err != nil {
		return nil, "", err
	}

	budget := s.cfg.Budget(timeoutOverride)
	result, err := s.driver.Solve(ctx, text, budget)
	if err != nil {
		return nil, "", err
	}

	if err := s.putText(ctx, "asp_statistics", renderStatistics(result.Statistics)); err != nil {
		return nil, result.Status, err
	}
	if err := s.putText(ctx, "asp_status", string(result.Status)+"\n"); err != nil {
		return nil, result.Status, err
	}

	if !result.Status.HasAnswer() {
		err := fmt.Errorf("solver finished with status %s", result.Status)
		return nil, result.Status, appErrors.Wrap(err, appErrors.ErrSolverFailure.Code, appErrors.ErrSolverFailure.ExitCode, err.Error())
	}

	atoms, err := asp.ParseAnswer(result.Answer)
	if err != nil {
		return nil, result.Status, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.ExitCode, "parse solver answer")
	}

	if err := s.putText(ctx, "asp_solution", renderSolution(atoms)); err != nil {
		return nil, result.Status, err
	}
	if err := s.putText(ctx, "asp_optimization", renderOptimization(atoms)); err != nil {
		return nil, result.Status, err
	}

	output, err := asp.NewDecoder(grid, input).Decode(atoms)
	if err != nil {
		return nil, result.Status, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.ExitCode, "decode answer set")
	}

	rendered, err := models.RenderOutput(output)
	if err != nil {
		return nil, result.Status, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.ExitCode, "encode output document")
	}
	if err := s.store.PutOutput(ctx, rendered); err != nil {
		return nil, result.Status, appErrors.Wrap(err, appErrors.ErrArtefactWrite.Code, appErrors.ErrArtefactWrite.ExitCode, "write output document")
	}

	for name, count := range asp.ObjectiveSummary(atoms) {
		s.logger.Info("objective atoms in final answer", zap.String("name", name), zap.Int("count", count))
	}
	s.logger.Info("schedule decoded",
		zap.String("status", string(result.Status)),
		zap.Int("units", len(output.Timetable)))

	return output, result.Status, nil
}

func (s *Service) putText(ctx context.Context, name, content string) error {
	if err := s.store.PutText(ctx, name, content); err != nil {
		return appErrors.Wrap(err, appErrors.ErrArtefactWrite.Code, appErrors.ErrArtefactWrite.ExitCode,
			fmt.Sprintf("write artefact %s", name))
	}
	return nil
}

func renderStatistics(stats []solver.Stat) string {
	var b strings.Builder
	for _, stat := range stats {
		fmt.Fprintf(&b, "%s\t%s\n", stat.Key, stat.Value)
	}
	return b.String()
}

// renderSolution writes one tab-separated row per scheduled cell.
func renderSolution(atoms []asp.GroundAtom) string {
	var b strings.Builder
	for _, atom := range atoms {
		if atom.Predicate != asp.PredScheduledSession || len(atom.Args) != 3 {
			continue
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\n", atom.Args[0], atom.Args[1], atom.Args[2])
	}
	return b.String()
}

// renderOptimization writes one row per objective atom: predicate, then its
// name, cost and value.
func renderOptimization(atoms []asp.GroundAtom) string {
	var b strings.Builder
	for _, atom := range atoms {
		if (atom.Predicate != asp.PredPenalty && atom.Predicate != asp.PredBonus) || len(atom.Args) != 4 {
			continue
		}
		fmt.Fprintf(&b, "%s\t\t%s\t%s\t%s\n", atom.Predicate, atom.Args[0], atom.Args[1], atom.Args[2])
	}
	return b.String()
}
