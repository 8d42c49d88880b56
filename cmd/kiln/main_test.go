package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/zerr"
)

func TestRun_ProviderFailure(t *testing.T) {
	var stderr bytes.Buffer
	failing := func(context.Context) (*app.Components, error) {
		return nil, zerr.New("init failed")
	}

	code := run(t.Context(), nil, &stderr, failing)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	log := logger.New().(*logger.Logger)
	log.SetOutput(&stderr)

	provider := func(context.Context) (*app.Components, error) {
		return &app.Components{App: &app.App{}, Logger: log}, nil
	}

	code := run(t.Context(), []string{"bogus"}, &stderr, provider)
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr.String())
}
