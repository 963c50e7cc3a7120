package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

// run executes holonctl against a database in dir and returns stdout
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--env", filepath.Join(dir, "missing.env"),
		"--db", filepath.Join(dir, "descriptors.db"),
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const bookYAML = `header:
  type_name: Book
  base_type:
    type: Holon
  description: A published book
  version: {major: 1, minor: 0, patch: 0}
  is_dependent: false
properties:
  pages:
    description: Page count
    descriptor:
      header:
        type_name: PageCount
        base_type: {type: Integer}
        description: A page count
        version: {major: 0, minor: 0, patch: 1}
        is_dependent: true
      details:
        integer: {format: u16, minValue: "1", maxValue: "65535"}
    sharing: {}
`

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "validate", writeFile(t, dir, "book.yaml", bookYAML))
	require.NoError(t, err)
	assert.Contains(t, out, `HolonDescriptor "Book" is valid`)

	overflow := strings.Replace(bookYAML, `maxValue: "65535"`, `maxValue: "70000"`, 1)
	_, err = run(t, dir, "validate", writeFile(t, dir, "overflow.yaml", overflow))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "properties.pages.max_value")

	_, err = run(t, dir, "validate", "--kind", "TypeHeader", filepath.Join(dir, "book.yaml"))
	require.Error(t, err, "a holon descriptor is not a type header")

	_, err = run(t, dir, "validate", "--kind", "Widget", filepath.Join(dir, "book.yaml"))
	require.Error(t, err)

	_, err = run(t, dir, "validate", filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_JSONInput(t *testing.T) {
	dir := t.TempDir()
	raw, err := yaml.YAMLToJSON([]byte(bookYAML))
	require.NoError(t, err)

	out, err := run(t, dir, "validate", writeFile(t, dir, "book.json", string(raw)))
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestSchema(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "schema", "PropertyDescriptor")
	require.NoError(t, err)
	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.NotEmpty(t, schema)

	out, err = run(t, dir, "schema", "TypeHeader", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "type_name")

	_, err = run(t, dir, "schema", "Widget")
	require.Error(t, err)

	_, err = run(t, dir, "schema", "TypeHeader", "-o", "table")
	require.Error(t, err)
}

func TestSeedListGet(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Holon_Type__with_no_properties")
	assert.Contains(t, out, "Holon_Type__with_composite_properties")

	out, err = run(t, dir, "list", "--kind", "HolonDescriptor")
	require.NoError(t, err)
	assert.Contains(t, out, "Holon_Type__with_scalar_properties")
	assert.Contains(t, out, "10", "the scalar sample has ten properties")

	_, err = run(t, dir, "list", "--kind", "Widget")
	require.Error(t, err)

	// the first table cell of the first data row is a handle
	handle := firstHandle(t, out)

	out, err = run(t, dir, "get", handle)
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, handle, got["handle"])
	assert.Equal(t, "HolonDescriptor", got["kind"])

	out, err = run(t, dir, "get", handle, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: HolonDescriptor")

	_, err = run(t, dir, "get", "not-a-handle")
	require.Error(t, err)

	_, err = run(t, dir, "get", "01HZY8Z5W4G9V8K6J3N2M1P0QR")
	require.Error(t, err)
}

func firstHandle(t *testing.T, table string) string {
	t.Helper()
	for _, line := range strings.Split(table, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && len(fields[0]) == 26 {
			return fields[0]
		}
	}
	t.Fatalf("no handle in table:\n%s", table)
	return ""
}
