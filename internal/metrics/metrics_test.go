package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Blocks.WithLabelValues("LinkedIn", "email_html").Add(3)
	m.JobsMerged.WithLabelValues("added").Inc()
	m.ProspectsByTier.WithLabelValues("Tier 1").Set(2)

	path := filepath.Join(t.TempDir(), "treasury.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `treasury_blocks_total{kind="email_html",source="LinkedIn"} 3`)
	assert.Contains(t, string(b), `treasury_prospects{tier="Tier 1"} 2`)

	assert.NoError(t, m.WriteTextfile(""))
}
