package envconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_FallsBackWhenUnset(t *testing.T) {
	assert.Equal(t, "fallback", Get("PLANNER_TEST_UNSET_KEY", "fallback"))
}

func TestGet_ReadsEnvironment(t *testing.T) {
	t.Setenv("PLANNER_TEST_PORT", "9090")
	assert.Equal(t, "9090", Get("PLANNER_TEST_PORT", "8080"))
	assert.Equal(t, 9090, GetInt("PLANNER_TEST_PORT", 1))
}

func TestGetInt_Malformed(t *testing.T) {
	t.Setenv("PLANNER_TEST_INT", "ten")
	assert.Equal(t, 7, GetInt("PLANNER_TEST_INT", 7))
}

func TestGetBoolAndList(t *testing.T) {
	t.Setenv("PLANNER_TEST_BOOL", "Yes")
	t.Setenv("PLANNER_TEST_LIST", " a@x.io, ,b@x.io ")
	assert.True(t, GetBool("PLANNER_TEST_BOOL", false))
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, GetList("PLANNER_TEST_LIST"))
}

func TestLoadFile_EnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("planner_file_only: from-file\nplanner_both: from-file\n"), 0o600))
	t.Setenv("PLANNER_BOTH", "from-env")

	require.NoError(t, LoadFile(path))
	t.Cleanup(func() {
		mu.Lock()
		source = newSource()
		mu.Unlock()
	})

	assert.Equal(t, "from-file", Get("PLANNER_FILE_ONLY", ""))
	assert.Equal(t, "from-env", Get("PLANNER_BOTH", ""))
}

func TestValidate(t *testing.T) {
	type sample struct {
		Port string `validate:"required"`
	}
	require.Error(t, Validate(sample{}))
	require.NoError(t, Validate(sample{Port: "8080"}))
}
