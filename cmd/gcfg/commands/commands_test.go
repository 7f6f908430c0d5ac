package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-cfg-builder/pkg/cache"
	"github.com/l3aro/go-cfg-builder/pkg/cfg"
)

const demoSource = `package demo

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func broken() {
	goto missing
}
`

type env struct {
	dir    string
	file   string
	config string
}

func newEnv(t *testing.T, configYAML string) env {
	t.Helper()
	dir := t.TempDir()
	e := env{
		dir:    dir,
		file:   filepath.Join(dir, "src", "demo.go"),
		config: filepath.Join(dir, "config.yaml"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(e.file), 0o755))
	require.NoError(t, os.WriteFile(e.file, []byte(demoSource), 0o644))
	require.NoError(t, os.WriteFile(e.config, []byte(configYAML), 0o644))
	return e
}

// run executes the root command with fresh flag state.
func run(t *testing.T, e env, args ...string) (string, string, error) {
	t.Helper()
	cfgJSON, cfgDot, cfgNoSimplify, cfgNoCache = false, false, false, false
	listJSON = false
	buildTypes, buildPolicy, buildJSON, buildConcurrency, buildTests, buildPatterns = false, "", false, 0, false, nil
	require.NoError(t, RootCmd.PersistentFlags().Set("verbose", "false"))

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := RootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCfgCommand(t *testing.T) {
	e := newEnv(t, "cache_enabled: false\n")

	t.Run("text", func(t *testing.T) {
		out, _, err := run(t, e, "cfg", e.file, "Abs")
		require.NoError(t, err)
		assert.Contains(t, out, "Function: Abs")
		assert.Contains(t, out, "Params: x int")
		assert.Contains(t, out, "Complexity: 2")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := run(t, e, "cfg", e.file, "Abs", "--json")
		require.NoError(t, err)
		var info cfg.CFGInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, "Abs", info.FunctionName)
		assert.Equal(t, 2, info.CyclomaticComplexity)
		assert.NotEmpty(t, info.Exits)
	})

	t.Run("dot", func(t *testing.T) {
		out, _, err := run(t, e, "cfg", e.file, "Abs", "--dot")
		require.NoError(t, err)
		assert.Contains(t, out, `digraph "Abs" {`)
		assert.Contains(t, out, "shape=diamond")
	})

	t.Run("unknown function suggests", func(t *testing.T) {
		_, _, err := run(t, e, "cfg", e.file, "abss")
		require.Error(t, err)
		assert.ErrorIs(t, err, errFunctionNotFound)
		assert.Contains(t, err.Error(), "did you mean Abs?")
	})

	t.Run("failed function", func(t *testing.T) {
		_, _, err := run(t, e, "cfg", e.file, "broken")
		require.Error(t, err)
		assert.ErrorIs(t, err, cfg.ErrUnresolvedLabel)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := run(t, e, "cfg", filepath.Join(e.dir, "nope.go"), "Abs")
		assert.Error(t, err)
	})
}

func TestCfgCommandCache(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	e := newEnv(t, "cache_dir: "+cacheDir+"\n")

	_, stderr, err := run(t, e, "cfg", e.file, "Abs", "--verbose")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "cache hit")
	assert.FileExists(t, filepath.Join(cacheDir, cache.FileName))

	out, stderr, err := run(t, e, "cfg", e.file, "Abs", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "cache hit")
	assert.Contains(t, out, "Function: Abs")
}

func TestListCommand(t *testing.T) {
	e := newEnv(t, "cache_enabled: false\n")

	out, _, err := run(t, e, "list", e.file)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 functions)")
	assert.Contains(t, out, "Abs")
	assert.Contains(t, out, "broken")
}

func TestBuildCommand(t *testing.T) {
	e := newEnv(t, "cache_enabled: false\n")

	out, _, err := run(t, e, "build", filepath.Join(e.dir, "src"), "--json")
	require.NoError(t, err)

	var results []fileResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "demo.go", results[0].File)
	require.Len(t, results[0].Graphs, 1)
	assert.Equal(t, "Abs", results[0].Graphs[0].FunctionName)
	require.Len(t, results[0].Failures, 1)
	assert.Equal(t, "broken", results[0].Failures[0].Function)

	out, _, err = run(t, e, "build", filepath.Join(e.dir, "src"))
	require.NoError(t, err)
	assert.Contains(t, out, "demo.go: 1 graphs, 1 failed")
	assert.Contains(t, out, "Built 1 graphs from 1 files, 1 functions failed")

	_, _, err = run(t, e, "build", filepath.Join(e.dir, "src"), "--policy", "abort")
	assert.ErrorIs(t, err, cfg.ErrUnresolvedLabel)

	_, _, err = run(t, e, "build", filepath.Join(e.dir, "src"), "--policy", "retry")
	assert.Error(t, err)
}

func TestBuildCommandRepeatedInit(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	e := newEnv(t, "cache_dir: "+cacheDir+"\n")
	src := "package demo\n\nvar a, b int\n\nfunc init() {\n\ta = 1\n}\n\nfunc init() {\n\tb = 2\n}\n"
	require.NoError(t, os.WriteFile(e.file, []byte(src), 0o644))

	texts := func(results []fileResult) [][]string {
		var out [][]string
		for _, g := range results[0].Graphs {
			var nodes []string
			for _, n := range g.Nodes {
				nodes = append(nodes, n.Text)
			}
			out = append(out, nodes)
		}
		return out
	}

	var first, second []fileResult
	out, _, err := run(t, e, "build", filepath.Join(e.dir, "src"), "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	require.Len(t, first, 1)
	require.Len(t, first[0].Graphs, 2)
	assert.False(t, first[0].Cached)
	assert.Equal(t, "init", first[0].Graphs[0].FunctionName)
	assert.Equal(t, "init#2", first[0].Graphs[1].FunctionName)

	out, _, err = run(t, e, "build", filepath.Join(e.dir, "src"), "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	require.Len(t, second, 1)
	assert.True(t, second[0].Cached)
	assert.Equal(t, texts(first), texts(second))
	assert.Contains(t, texts(second)[1], "b = 2")
}
