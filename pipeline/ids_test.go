package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIDs(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ids.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadIDs(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"ids strings", `{"ids": ["17012345", "17012346"]}`, []string{"17012345", "17012346"}},
		{"all_ids numbers", `{"all_ids": [17012345, 17012346, 17012345]}`, []string{"17012345", "17012346"}},
		{"ids preferred", `{"ids": ["1"], "all_ids": ["2"]}`, []string{"1"}},
		{"empty", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadIDs(writeIDs(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadIDs_Errors(t *testing.T) {
	_, err := LoadIDs(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadIDs(writeIDs(t, `{"ids": [`))
	assert.Error(t, err)
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, SplitIDs(" 1, 2,,1 ,3 "))
	assert.Nil(t, SplitIDs(""))
}
