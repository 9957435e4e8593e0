package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ci@https://jira.example.com", Key("https://jira.example.com", "ci"))
	assert.Equal(t, "token@https://jira.example.com", Key("https://jira.example.com", ""))
}

func TestBackends_Default(t *testing.T) {
	t.Setenv(BackendEnv, "")

	got, err := backends()
	require.NoError(t, err)
	assert.Equal(t, defaultBackends, got)
}

func TestBackends_File(t *testing.T) {
	t.Setenv(BackendEnv, " File ")

	got, err := backends()
	require.NoError(t, err)
	assert.Equal(t, []keyring.BackendType{keyring.FileBackend}, got)
}

func TestBackends_Unknown(t *testing.T) {
	t.Setenv(BackendEnv, "vault")

	_, err := backends()
	assert.ErrorContains(t, err, `"vault"`)
}

func TestFilePassword_FromEnv(t *testing.T) {
	t.Setenv(FilePasswordEnv, "agent-secret")

	got, err := filePassword("unused")
	require.NoError(t, err)
	assert.Equal(t, "agent-secret", got)
}
