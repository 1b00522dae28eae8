package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	t.Run("Should register all subcommands", func(t *testing.T) {
		root := RootCmd()
		names := map[string]bool{}
		for _, cmd := range root.Commands() {
			names[cmd.Name()] = true
		}
		for _, expected := range []string{"serve", "export", "validate", "version"} {
			assert.True(t, names[expected], "missing %s", expected)
		}
	})
	t.Run("Should print version information", func(t *testing.T) {
		root := RootCmd()
		out := &bytes.Buffer{}
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs([]string{"version"})
		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), "daobuilder")
	})
}

func TestExportCmd(t *testing.T) {
	t.Run("Should regenerate a file with anchors reconstructed", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "config.yaml")
		output := filepath.Join(dir, "model_config.yaml")
		doc := "resources:\n  llms:\n    gpt: &gpt\n      name: gpt-4o\nagents:\n  helper:\n    name: helper\n    model: *gpt\n"
		require.NoError(t, os.WriteFile(input, []byte(doc), 0o644))

		root := RootCmd()
		root.SetArgs([]string{"export", "-f", input, "-o", output})
		require.NoError(t, root.Execute())

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(data), "gpt: &gpt")
		assert.Contains(t, string(data), "model: *gpt")
	})
	t.Run("Should fail on a missing input file", func(t *testing.T) {
		root := RootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"export", "-f", filepath.Join(t.TempDir(), "absent.yaml")})
		assert.Error(t, root.Execute())
	})
}
