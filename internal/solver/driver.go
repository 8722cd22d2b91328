// Package solver wraps the external Clingo grounder/solver: process
// invocation, time budgeting, incremental answer collection and status
// classification. It knows nothing about the predicate lexicon.
package solver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/uniterm/timetabler/pkg/errors"
)

// Status classifies a solver run.
type Status string

const (
	StatusSatisfiableBest Status = "SATISFIABLE_BEST"
	StatusSatisfiable     Status = "SATISFIABLE"
	StatusTimeout         Status = "TIMEOUT"
	StatusUnsatisfiable   Status = "UNSATISFIABLE"
	StatusUnknown         Status = "UNKNOWN"
)

// HasAnswer reports whether the status carries a usable answer.
func (s Status) HasAnswer() bool {
	return s == StatusSatisfiable || s == StatusSatisfiableBest
}

// Stat is one key/value pair of the solver's summary statistics.
type Stat struct {
	Key   string
	Value string
}

// Result captures the outcome of one solver run. Answer holds the atoms of
// the most recent answer set, empty when none was found.
type Result struct {
	Status       Status
	Answer       string
	Optimization string
	OptimumFound bool
	AnswerCount  int
	Statistics   []Stat
}

// Driver invokes the solver binary.
type Driver struct {
	clingoPath string
	logger     *zap.Logger
}

// NewDriver builds a driver for the given clingo binary.
func NewDriver(clingoPath string, logger *zap.Logger) *Driver {
	if clingoPath == "" {
		clingoPath = "clingo"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{clingoPath: clingoPath, logger: logger}
}

// outputBuffer is the slice of the wall-clock budget reserved for artefact
// processing after the solver stops: 2.5% of the budget, clamped to
// [30s, 300s].
func outputBuffer(budget time.Duration) time.Duration {
	buffer := time.Duration(float64(budget) * 0.025)
	if buffer < 30*time.Second {
		buffer = 30 * time.Second
	}
	if buffer > 5*time.Minute {
		buffer = 5 * time.Minute
	}
	return buffer
}

// solverTimeout deducts the output buffer from the budget. Budgets smaller
// than the buffer are passed through untouched.
func solverTimeout(budget time.Duration) time.Duration {
	actual := budget - outputBuffer(budget)
	if actual <= 0 {
		return budget
	}
	return actual
}

// Solve runs the solver over the program text, enumerating improving answer
// sets until the timeout and retaining the most recent one. Cancelling the
// context kills the solver and surrenders the best answer found so far.
func (d *Driver) Solve(ctx context.Context, program string, budget time.Duration) (*Result, error) {
	timeout := solverTimeout(budget)
	d.logger.Info("invoking solver",
		zap.Duration("budget", budget),
		zap.Duration("outputBuffer", outputBuffer(budget)),
		zap.Duration("timeout", timeout))

	cmd := exec.Command(d.clingoPath,
		"--models=0",
		"--stats",
		fmt.Sprintf("--time-limit=%d", int(timeout.Seconds())))
	cmd.Stdin = strings.NewReader(program)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.ExitCode, "open solver stdout")
	}
	if err := cmd.Start(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.ExitCode, "start solver process")
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = cmd.Process.Kill()
		case <-done:
		}
	}()

	parser := &streamParser{onAnswer: func(number int, optimization string) {
		d.logger.Info("found solution",
			zap.Int("answer", number),
			zap.String("optimization", optimization))
	}}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		parser.feed(scanner.Text())
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	close(done)

	cancelled := ctx.Err() != nil
	if !cancelled {
		if scanErr != nil {
			return nil, appErrors.Wrap(scanErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.ExitCode, "read solver output")
		}
		// Clingo encodes SAT/UNSAT/interrupt in its exit code; only a
		// failure to execute at all is an invocation error.
		var exitErr *exec.ExitError
		if waitErr != nil && !errors.As(waitErr, &exitErr) {
			return nil, appErrors.Wrap(waitErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.ExitCode,
				fmt.Sprintf("solver process failed: %s", strings.TrimSpace(stderr.String())))
		}
	}

	result := parser.result(cancelled)
	d.logger.Info("solver finished",
		zap.String("status", string(result.Status)),
		zap.Int("answers", result.AnswerCount),
		zap.Bool("optimum", result.OptimumFound))
	return result, nil
}
