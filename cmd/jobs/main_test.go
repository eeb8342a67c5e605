package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResetCmd_RequiresPeriod(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"reset"})
	assert.Error(t, root.Execute())
}

func TestResetCmd_RejectsUnknownPeriod(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"reset", "--period", "daily"})
	err := root.Execute()
	assert.ErrorContains(t, err, "unknown period")
}

func TestResetCmd_MemoryDatastoreHasNothingToReset(t *testing.T) {
	t.Setenv("DATASTORE", "memory")
	root := newRootCmd()
	root.SetArgs([]string{"reset", "--period", "weekly"})
	assert.ErrorContains(t, root.Execute(), "nothing to reset")
}
