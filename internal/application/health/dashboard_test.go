package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDashboardHTML(t *testing.T) {
	ms := int64(3)
	html, err := RenderDashboardHTML(CollectResult{
		Status: "ok",
		Traffic: TrafficInfo{
			TotalRequests: 12,
			SuccessRate:   "100",
			LastRequest:   map[string]interface{}{"method": "POST", "path": "/api/v1/trading/purchase"},
		},
		Market: &MarketInfo{ActiveListings: 4, Trades: 9, LastEventSeq: 31},
		Dependencies: map[string]DepStatus{
			"database": {Status: StatusConnected, PingMs: &ms},
			"redis":    {Status: StatusError},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, html, "All Systems Operational")
	assert.Contains(t, html, "/api/v1/trading/purchase")
	assert.Contains(t, html, "#31")
	assert.Contains(t, html, "3 ms")
	assert.Contains(t, html, `"activeListings":4`)
}

func TestRenderDashboardHTML_Issue(t *testing.T) {
	html, err := RenderDashboardHTML(CollectResult{Status: "issue", Dependencies: map[string]DepStatus{}})
	require.NoError(t, err)
	assert.Contains(t, html, "System Issues Detected")
	assert.Contains(t, html, `class="big err">n/a`)
}
