package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deskhand/deskhand/pkg/config"
	"github.com/deskhand/deskhand/pkg/types"
)

func TestCapabilities(t *testing.T) {
	cloud := For(types.ZoneCloud)
	assert.True(t, cloud.ReadExternalEvents)
	assert.True(t, cloud.DraftPlan)
	assert.False(t, cloud.ExecuteSideEffect)
	assert.False(t, cloud.AutoApprove)
	assert.False(t, cloud.ApproveReject)
	assert.False(t, cloud.WriteDashboard)

	local := For(types.ZoneLocal)
	assert.True(t, local.ExecuteSideEffect)
	assert.True(t, local.AutoApprove)
	assert.True(t, local.ApproveReject)
	assert.True(t, local.WriteDashboard)
}

func TestCheckCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.TwitterToken = "tok"
	warnings := CheckCredentials(types.ZoneCloud, cfg)
	assert.Len(t, warnings, 1)

	warnings = CheckCredentials(types.ZoneLocal, config.Default())
	assert.Len(t, warnings, 1)

	cfg = config.Default()
	cfg.GmailAccessToken = "tok"
	assert.Empty(t, CheckCredentials(types.ZoneLocal, cfg))
}
