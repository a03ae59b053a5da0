package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagArgs(t *testing.T) {
	tags, err := parseTagArgs([]string{"Environment=prod", "CostCenter=eng", "Empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Environment": "prod",
		"CostCenter":  "eng",
		"Empty":       "",
	}, tags)
}

func TestParseTagArgs_Invalid(t *testing.T) {
	for _, bad := range []string{"noequals", "=value"} {
		_, err := parseTagArgs([]string{bad})
		assert.Error(t, err, "input %q", bad)
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"scan", "remediate", "policy", "sweep"} {
		assert.Contains(t, names, want)
	}
}
