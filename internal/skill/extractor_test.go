package skill

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_NormalizesAliases(t *testing.T) {
	got := Default().Extract("Built with ReactJS and K8s")

	assert.Contains(t, got, "React")
	assert.Contains(t, got, "Kubernetes")
	assert.NotContains(t, got, "ReactJS")
	assert.NotContains(t, got, "K8s")
}

func TestExtract_VocabularyOrderAndUnique(t *testing.T) {
	got := Default().Extract("We use docker, Golang, nodejs, Go and Node.js. Python too.")

	// vocabulary order: Python, Go (via Go and Golang), Node.js, Docker
	assert.Equal(t, []string{"Python", "Go", "Node.js", "Docker"}, got)
}

func TestExtract_WordBoundaries(t *testing.T) {
	e := Default()

	assert.NotContains(t, e.Extract("JavaScript only"), "Java")
	assert.Contains(t, e.Extract("C++ and C# engineers"), "C++")
	assert.Contains(t, e.Extract("C++ and C# engineers"), "C#")
	assert.Equal(t, []string{}, e.Extract("gopher going good"))
}

func TestExtract_Cap(t *testing.T) {
	text := "JavaScript TypeScript Python Java Rust Ruby PHP Swift Kotlin Scala React Vue Angular Svelte Docker Kubernetes Terraform"

	got := Default().Extract(text)
	assert.Len(t, got, 15)
	assert.Equal(t, "JavaScript", got[0])

	small := New(defaultTerms(), defaultAliases(), 10)
	assert.Len(t, small.Extract(text), 10)
}

func TestExtract_Idempotent(t *testing.T) {
	e := Default()
	first := e.Extract("Senior engineer: reactjs, node.js, k8s, AWS, amazon web services, PostgreSQL, golang, CI/CD, html5")
	second := e.Extract(strings.Join(first, " "))

	assert.ElementsMatch(t, first, second)
}

func TestNew_SkipsMalformedPatterns(t *testing.T) {
	e := New([]Term{{Name: "Broken", Pattern: "(unclosed"}, {Name: "Go"}}, nil, 5)

	assert.Equal(t, []string{"Go"}, e.Extract("go broken"))
}

func TestExtract_EmptyText(t *testing.T) {
	assert.Equal(t, []string{}, Default().Extract("  "))
	var nilExtractor *Extractor
	assert.Equal(t, []string{}, nilExtractor.Extract("Go"))
}

func TestMerge(t *testing.T) {
	e := New(names("Go"), nil, 3)

	assert.Equal(t, []string{"Go", "gRPC", "Kafka"}, e.Merge([]string{"Go"}, "gRPC", "Go", " ", "Kafka", "NATS"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skills.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max: 2
terms:
  - name: Elixir
  - name: Phoenix
  - name: Erlang
    pattern: "Erlang(/OTP)?"
aliases:
  erlang/otp: Erlang
`), 0o644))

	e, err := LoadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Max())
	assert.Equal(t, []string{"Elixir", "Erlang"}, e.Extract("Erlang/OTP and elixir"))
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("terms: [::"), 0o644))
	_, err = LoadFile(path, nil)
	assert.Error(t, err)
}
