// Package conda implements the BinarySolver port by shelling out to the
// binary-ecosystem solver CLI.
package conda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const defaultSolverBinary = "micromamba"

var _ ports.BinarySolver = (*Solver)(nil)

// Solver implements ports.BinarySolver by invoking an external SAT
// solver with a JSON request on stdin and parsing its JSON solution.
type Solver struct {
	binary string
	run    runFunc
}

// runFunc executes the solver binary. Injected in tests.
type runFunc func(ctx context.Context, binary string, stdin []byte, args ...string) (stdout []byte, err error)

// NewSolver creates a BinarySolver backed by the default solver CLI.
func NewSolver() *Solver {
	return &Solver{binary: defaultSolverBinary, run: runCommand}
}

// newSolverWithRunner creates a Solver with a custom runner (used for testing).
func newSolverWithRunner(run runFunc) *Solver {
	return &Solver{binary: defaultSolverBinary, run: run}
}

// Solve resolves binary specs for one platform against the configured
// channels. An unsatisfiable request is reported as a wrapped
// domain.ErrUnsatisfiable carrying the solver's explanation.
func (s *Solver) Solve(ctx context.Context, specs []domain.Spec, platform domain.Platform, channels []domain.Channel) ([]domain.Package, error) {
	request := solveRequest{Platform: string(platform)}
	for _, channel := range channels {
		request.Channels = append(request.Channels, channelRequest{
			Name:     channel.Name,
			Priority: channel.Priority,
		})
	}
	for _, spec := range specs {
		request.Specs = append(request.Specs, specRequest{
			Name:       spec.Name.String(),
			Constraint: spec.Constraint,
			Build:      spec.Build,
			Channel:    spec.Channel,
		})
	}

	stdin, err := json.Marshal(request)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to marshal solve request")
	}

	stdout, err := s.run(ctx, s.binary, stdin, "solve", "--json")
	if err != nil {
		return nil, s.classifyFailure(err, platform)
	}

	var response solveResponse
	if err := json.Unmarshal(stdout, &response); err != nil {
		parseErr := zerr.Wrap(err, "failed to parse solver output")
		return nil, zerr.With(parseErr, "platform", string(platform))
	}

	packages := make([]domain.Package, 0, len(response.Packages))
	for _, pkg := range response.Packages {
		packages = append(packages, domain.Package{
			Ecosystem: domain.EcosystemBinary,
			Name:      domain.NewInternedString(pkg.Name),
			Version:   pkg.Version,
			Build:     pkg.Build,
			Hash:      pkg.Sha256,
			Source:    pkg.URL,
			Requires:  pkg.Depends,
		})
	}
	return packages, nil
}

// classifyFailure distinguishes an unsatisfiable request from an
// operational solver failure. The solver prints a JSON failure document
// on stderr before exiting non-zero.
func (s *Solver) classifyFailure(err error, platform domain.Platform) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		runErr := zerr.Wrap(err, "solver invocation failed")
		return zerr.With(runErr, "platform", string(platform))
	}

	stderr := strings.TrimSpace(string(exitErr.Stderr))

	var failure solveFailure
	if jsonErr := json.Unmarshal([]byte(stderr), &failure); jsonErr == nil && failure.Error == failureUnsatisfiable {
		unsatErr := zerr.Wrap(exitErr, domain.ErrUnsatisfiable.Error())
		unsatErr = zerr.With(unsatErr, "platform", string(platform))
		return zerr.With(unsatErr, "reason", failure.Message)
	}

	solverErr := zerr.Wrap(exitErr, "solver exited with an error")
	solverErr = zerr.With(solverErr, "platform", string(platform))
	return zerr.With(solverErr, "stderr", stderr)
}

// runCommand is the production runFunc.
func runCommand(ctx context.Context, binary string, stdin []byte, args ...string) ([]byte, error) {
	//nolint:gosec // Binary name and arguments are fixed at build time
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	return cmd.Output()
}
