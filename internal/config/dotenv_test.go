package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDotenv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DotenvFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadDotenv(t *testing.T) {
	path := writeDotenv(t, `# comment

NS_URL=http://localhost:8000?a=b
QUOTED="hello world"
SINGLE='single quoted'
NOEQ
  SPACED = value
`)

	vals, err := ReadDotenv(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"NS_URL": "http://localhost:8000?a=b",
		"QUOTED": "hello world",
		"SINGLE": "single quoted",
		"SPACED": "value",
	}, vals)
}

func TestReadDotenvMissingFile(t *testing.T) {
	vals, err := ReadDotenv(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestGetenvPrefersEnvironment(t *testing.T) {
	t.Setenv("NS_TEST_KEY", "from-env")
	get := Getenv(map[string]string{"NS_TEST_KEY": "from-dotenv", "NS_OTHER": "dotenv-only"})

	assert.Equal(t, "from-env", get("NS_TEST_KEY"))
	assert.Equal(t, "dotenv-only", get("NS_OTHER"))
	assert.Equal(t, "", get("NS_MISSING_KEY"))
}
