package main

import (
	"errors"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser(t *testing.T) {
	a := &app{}
	parser, err := newParser(a)
	require.NoError(t, err)

	for _, name := range []string{"setup", "teardown", "select", "iud", "compare", "menu"} {
		assert.NotNil(t, parser.Find(name), name)
	}

	// --entity is required, so the command never runs
	_, err = parser.ParseArgs([]string{"--db", "postgres", "iud"})
	var flagsErr *flags.Error
	require.True(t, errors.As(err, &flagsErr), "%v", err)
	assert.Equal(t, flags.ErrRequired, flagsErr.Type)
	assert.Equal(t, "postgres", a.opts.DB)
	assert.Equal(t, "config.yaml", a.opts.Config)
}
