// Package pip implements the LanguageResolver port by shelling out to the
// language-ecosystem resolver CLI.
package pip

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

const defaultResolverBinary = "uv"

var _ ports.LanguageResolver = (*Resolver)(nil)

// Resolver implements ports.LanguageResolver by invoking an external
// resolver with a JSON request on stdin. The request carries the
// interpreter pinned by the binary solver so wheel tags and environment
// markers are evaluated against that interpreter, never the host one.
type Resolver struct {
	binary string
	run    runFunc
}

// runFunc executes the resolver binary. Injected in tests.
type runFunc func(ctx context.Context, binary string, stdin []byte, args ...string) (stdout []byte, err error)

// NewResolver creates a LanguageResolver backed by the default resolver CLI.
func NewResolver() *Resolver {
	return &Resolver{binary: defaultResolverBinary, run: runCommand}
}

// newResolverWithRunner creates a Resolver with a custom runner (used for testing).
func newResolverWithRunner(run runFunc) *Resolver {
	return &Resolver{binary: defaultResolverBinary, run: run}
}

// Resolve resolves language specs for one platform in the context of the
// given interpreter. An unsatisfiable request is reported as a wrapped
// domain.ErrUnsatisfiable.
func (r *Resolver) Resolve(ctx context.Context, specs []domain.Spec, platform domain.Platform, interp domain.InterpreterContext) ([]domain.Package, error) {
	request := resolveRequest{
		Platform: string(platform),
		Interpreter: interpreterRequest{
			Name:    domain.InterpreterName,
			Version: interp.Version,
		},
	}
	for _, spec := range specs {
		request.Requirements = append(request.Requirements, requirementRequest{
			Name:       spec.Name.String(),
			Constraint: spec.Constraint,
		})
	}

	stdin, err := json.Marshal(request)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to marshal resolve request")
	}

	stdout, err := r.run(ctx, r.binary, stdin, "resolve", "--json")
	if err != nil {
		return nil, r.classifyFailure(err, platform)
	}

	var response resolveResponse
	if err := json.Unmarshal(stdout, &response); err != nil {
		parseErr := zerr.Wrap(err, "failed to parse resolver output")
		return nil, zerr.With(parseErr, "platform", string(platform))
	}

	packages := make([]domain.Package, 0, len(response.Packages))
	for _, pkg := range response.Packages {
		packages = append(packages, domain.Package{
			Ecosystem: domain.EcosystemLanguage,
			Name:      domain.NewInternedString(pkg.Name),
			Version:   pkg.Version,
			Hash:      pkg.Sha256,
			Source:    pkg.URL,
			Requires:  pkg.RequiresNative,
		})
	}
	return packages, nil
}

func (r *Resolver) classifyFailure(err error, platform domain.Platform) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		runErr := zerr.Wrap(err, "resolver invocation failed")
		return zerr.With(runErr, "platform", string(platform))
	}

	stderr := strings.TrimSpace(string(exitErr.Stderr))

	var failure resolveFailure
	if jsonErr := json.Unmarshal([]byte(stderr), &failure); jsonErr == nil && failure.Error == failureUnsatisfiable {
		unsatErr := zerr.Wrap(exitErr, domain.ErrUnsatisfiable.Error())
		unsatErr = zerr.With(unsatErr, "platform", string(platform))
		return zerr.With(unsatErr, "reason", failure.Message)
	}

	resolveErr := zerr.Wrap(exitErr, "resolver exited with an error")
	resolveErr = zerr.With(resolveErr, "platform", string(platform))
	return zerr.With(resolveErr, "stderr", stderr)
}

// runCommand is the production runFunc.
func runCommand(ctx context.Context, binary string, stdin []byte, args ...string) ([]byte, error) {
	//nolint:gosec // Binary name and arguments are fixed at build time
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	return cmd.Output()
}
