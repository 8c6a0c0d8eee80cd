package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vk/floodpath/internal/config"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. It returns
// the log buffer and the data buffer that stands in for stdout. Logs are
// printed on cleanup when FLOODPATH_TEST_LOGS=true.
func SetupAppTest(t *testing.T, appConfig *Config, loader config.Loader) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	logBuffer, outBuffer := &SafeBuffer{}, &SafeBuffer{}
	appConfig.LogLevel = "debug"
	testApp := NewApp(outBuffer, logBuffer, appConfig, loader)

	t.Cleanup(func() {
		if os.Getenv("FLOODPATH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer, outBuffer
}

// WriteFixtures writes name -> content files into dir and returns dir.
func WriteFixtures(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create fixture dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write fixture %s: %v", name, err)
		}
	}
	return dir
}

// ScenarioFixtures is a 5x5 run where candidates 1 (weight 80) and 2
// (weight 20) converge at row 2, column 2 and the stream sits at row 4,
// column 2. Candidate 3 has no hazard on its way.
var ScenarioFixtures = map[string]string{
	"d8.asc": `ncols 5
nrows 5
xllcorner 0
yllcorner 0
cellsize 10
4 4 4 4 4
4 2 4 8 4
4 4 4 4 4
4 4 4 4 4
4 4 4 4 4
`,
	"class.asc": `ncols 5
nrows 5
xllcorner 0
yllcorner 0
cellsize 10
NODATA_value -9999
0 0 0 0 0
0 1 0 0 0
0 0 0 0 0
0 0 2 0 0
0 0 3 0 0
`,
	"points.csv": `id,row,col
1,0,1
2,0,3
3,0,4
`,
	"weights.csv": `id,weight
1,80
2,20
3,5
`,
	"run.hcl": `
analysis {
  workers = 2
}
grid {
  direction = "d8.asc"
  class     = "class.asc"
}
candidates {
  points  = "points.csv"
  weights = "weights.csv"
}
output {
  path = "out/paths.geojson"
}
`,
}
