// Package zone declares what each process role may do. Gate checks in
// the orchestrator and web surface consult the capability table and
// nothing else.
package zone

import (
	"github.com/deskhand/deskhand/pkg/config"
	"github.com/deskhand/deskhand/pkg/types"
)

// Capabilities enumerates the operations a zone may perform.
type Capabilities struct {
	ReadExternalEvents bool
	DraftPlan          bool
	ExecuteSideEffect  bool
	AutoApprove        bool
	ApproveReject      bool
	WriteDashboard     bool
}

// For returns the capability table for a zone. Cloud drafts only;
// Local owns execution, approval, and the dashboard index.
func For(z types.Zone) Capabilities {
	caps := Capabilities{
		ReadExternalEvents: true,
		DraftPlan:          true,
	}
	if z == types.ZoneLocal {
		caps.ExecuteSideEffect = true
		caps.AutoApprove = true
		caps.ApproveReject = true
		caps.WriteDashboard = true
	}
	return caps
}

// CheckCredentials returns warnings about credentials that look
// misplaced for the zone. Warnings never block startup.
func CheckCredentials(z types.Zone, cfg config.Config) []string {
	var warnings []string
	if z == types.ZoneCloud {
		if cfg.LinkedInToken != "" || cfg.FacebookToken != "" || cfg.TwitterToken != "" {
			warnings = append(warnings, "social credentials present in cloud zone; they will never be used there")
		}
	}
	if z == types.ZoneLocal && cfg.GmailAccessToken == "" {
		warnings = append(warnings, "local zone has no mail credentials; replies cannot be sent")
	}
	return warnings
}
