package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSearchForConfig(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "inglesh.yaml")
	if err := os.WriteFile(cfgPath, []byte("name: test\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Found by walking up from a nested directory.
	if got := SearchForConfig("inglesh.yaml", nested); got != cfgPath {
		t.Errorf("SearchForConfig() = %q, want %q", got, cfgPath)
	}

	// Missing files yield the empty string.
	if got := SearchForConfig("inglesh-rando-11234.yaml", nested); got != "" {
		t.Errorf("SearchForConfig() = %q, want empty", got)
	}
}

func TestTransformEnv(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "LI__IDENTITY__SESSION_TTL", want: "identity.sessionTtl"},
		{input: "LI__STORAGE__DRIVER", want: "storage.driver"},
		{input: "LI__FOOBAR", want: "foobar"},
		{input: "LI__A__B_C", want: "a.bC"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := TransformEnv(tt.input); got != tt.want {
				t.Errorf("TransformEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}
