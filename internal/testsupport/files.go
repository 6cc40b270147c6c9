package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path holding size bytes of repeating filler. Sizes of
// zero or less still produce one byte so stat-based checks see a real file.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x56
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteCredentials drops placeholder credential files at the paths named by
// the config so preflight checks pass in tests.
func WriteCredentials(t testing.TB, apiKeyPath, clientSecretsPath, tokenPath string) {
	t.Helper()

	files := map[string][]byte{
		apiKeyPath:        []byte("sk-test\n"),
		clientSecretsPath: []byte(`{"installed":{"client_id":"test"}}`),
		tokenPath:         []byte("token"),
	}
	for path, content := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", path, err)
		}
		if err := os.WriteFile(path, content, 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}
