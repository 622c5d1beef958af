package config_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/i3smerge/config"
)

func TestLoad(t *testing.T) {
	var testCases = []struct {
		description string
		yaml        string
		expect      *config.Config
		expectErr   bool
	}{
		{
			description: "defaults",
			yaml:        "force: true\n",
			expect: &config.Config{
				Offset:       10000,
				NodesPerPage: 1000,
				RootPolicy:   "attach",
				Force:        true,
				Workers:      runtime.NumCPU(),
			},
		},
		{
			description: "overrides",
			yaml:        "offset: 500\nnodesPerPage: 64\nrootPolicy: forest\nlenient: true\nworkers: 3\n",
			expect: &config.Config{
				Offset:       500,
				NodesPerPage: 64,
				RootPolicy:   "forest",
				Lenient:      true,
				Workers:      3,
			},
		},
		{
			description: "invalid policy",
			yaml:        "rootPolicy: tree\n",
			expectErr:   true,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			location := filepath.Join(t.TempDir(), "merge.yaml")
			if !assert.Nil(t, os.WriteFile(location, []byte(testCase.yaml), 0644)) {
				return
			}
			actual, err := config.Load(context.Background(), location)
			if testCase.expectErr {
				assert.NotNil(t, err)
				return
			}
			if !assert.Nil(t, err) {
				return
			}
			assert.EqualValues(t, testCase.expect, actual)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Nil(t, cfg.Validate())
	assert.Equal(t, config.DefaultOffset, cfg.Offset)
}
