package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const concatScenario = `
name: concat_arrays
description: Two arrays in order.
sources:
  lower:
    items: ["a", "b"]
  upper:
    items: ["A"]
pipeline:
  operator: concat
  inputs: [lower, upper]
expect:
  - next: "a"
  - next: "b"
  - next: "A"
  - complete: true
`

const failingScenario = `
name: wrong_order
description: Expects the arrays swapped.
sources:
  lower:
    items: ["a"]
  upper:
    items: ["A"]
pipeline:
  operator: concat
  inputs: [lower, upper]
expect:
  - next: "A"
  - next: "a"
  - complete: true
`

const concatGolden = `{"scenario_name":"concat_arrays","trace":[{"kind":"next","seq":1,"value":"a"},{"kind":"next","seq":2,"value":"b"},{"kind":"next","seq":3,"value":"A"},{"kind":"complete","seq":4}]}`

// writeFile writes content under dir, creating parent directories.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
