package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudvet/cloudvet/types"
)

func TestParseAccounts(t *testing.T) {
	accounts, err := parseAccounts([]string{"111111111111=prod", "222222222222=staging"})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, types.AccountRef{ID: "111111111111", Name: "prod"}, accounts[0])
	assert.Equal(t, "staging", accounts[1].Name)
}

func TestParseAccountsRejectsBadSpec(t *testing.T) {
	_, err := parseAccounts([]string{"justanid"})
	assert.Error(t, err)

	_, err = parseAccounts([]string{"=prod"})
	assert.Error(t, err)
}

func TestLoadConfigRequiresAccounts(t *testing.T) {
	cmd := &AssessCommand{ConfigPath: "/nonexistent/cloudvet.yaml"}
	_, err := cmd.loadConfig()
	assert.Error(t, err)
}

func TestLoadConfigFromFlagsAlone(t *testing.T) {
	cmd := &AssessCommand{
		ConfigPath: "/nonexistent/cloudvet.yaml",
		Accounts:   []string{"111111111111=prod"},
		Depth:      "quick",
		Region:     "eu-west-1",
	}

	cfg, err := cmd.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, types.DepthQuick, cfg.Depth)
	require.Len(t, cfg.Accounts, 1)
}

func TestContains(t *testing.T) {
	assert.True(t, contains([]string{"table", "json"}, "json"))
	assert.False(t, contains([]string{"table", "json"}, "csv"))
}
