package buildvars

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/issue-updater/internal/model"
)

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCollect_Precedence(t *testing.T) {
	t.Parallel()
	path := writeParams(t, "VERSION: 1.2\nBUILD_NUMBER: 40\nRELEASE: true\n")

	vars, err := Collect(Sources{
		Environ:    []string{"BUILD_NUMBER=39", "JOB_NAME=app", "VERSION=1.0"},
		ParamsFile: path,
		Params:     []string{"BUILD_NUMBER=41", "URL=http://ci/job?a=b"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.Variables{
		"BUILD_NUMBER": "41",
		"JOB_NAME":     "app",
		"VERSION":      "1.2",
		"RELEASE":      "true",
		"URL":          "http://ci/job?a=b",
	}, vars)
}

func TestCollect_SkipsMalformedEnviron(t *testing.T) {
	t.Parallel()
	vars, err := Collect(Sources{Environ: []string{"=C:=C:\\", "NOEQUALS", "A="}})
	require.NoError(t, err)
	assert.Equal(t, model.Variables{"A": ""}, vars)
}

func TestCollect_InvalidParam(t *testing.T) {
	t.Parallel()
	_, err := Collect(Sources{Params: []string{"NOVALUE"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEY=VALUE")
}

func TestLoadParamsFile_Errors(t *testing.T) {
	t.Parallel()
	_, err := LoadParamsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadParamsFile(writeParams(t, "LIST: [a, b]\n"))
	assert.Error(t, err)

	_, err = LoadParamsFile(writeParams(t, "- not a mapping\n"))
	assert.Error(t, err)
}
