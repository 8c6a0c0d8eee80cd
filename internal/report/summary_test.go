package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	out := Render(Summary{
		RunID:      "run-1",
		Policy:     "priority_merge",
		Candidates: 12,
		Critical:   3,
		Output:     "out/paths.geojson",
		Elapsed:    1500 * time.Millisecond,
	})

	assert.Contains(t, out, "floodpath summary")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "priority_merge")
	assert.Contains(t, out, "critical")
	assert.Contains(t, out, "out/paths.geojson")
	assert.Contains(t, out, "1.5s")
	assert.NotContains(t, out, "diagnostic")
}

func TestRender_TruncatesDiagnostics(t *testing.T) {
	var diags []string
	for i := 0; i < 8; i++ {
		diags = append(diags, fmt.Sprintf("candidate %d: bad", i))
	}

	out := Render(Summary{Diagnostics: diags})

	assert.Contains(t, out, "8 diagnostic(s)")
	assert.Contains(t, out, "candidate 4: bad")
	assert.NotContains(t, out, "candidate 5: bad")
	assert.Contains(t, out, "and 3 more")
}
