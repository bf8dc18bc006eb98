package permissions

// Permission keys guarded by the admin API.
const (
	KeyProposals  = "can_manage_proposals"
	KeyContent    = "can_edit_content"
	KeyAIGenerate = "can_generate_ai_content"
	KeyAnalytics  = "can_view_analytics"
	KeyUsers      = "can_manage_users"
	KeyRoles      = "can_manage_roles"
	KeyBilling    = "can_manage_billing"
	KeyAPIQuota   = "can_manage_api_quota"
	KeySecurity   = "can_manage_security"
	KeyBranding   = "can_manage_branding"
	KeyAuditLogs  = "can_view_audit_logs"
	KeyTerms      = "can_manage_terms"
	KeyNotify     = "can_view_notifications"
)

// DefaultCatalog is the catalog seeded into a fresh installation.
func DefaultCatalog() *Catalog {
	return MustCatalog(
		Definition{Key: KeyProposals, Label: "Proposals", Description: "Create, edit and remove proposals and RFP responses."},
		Definition{Key: KeyContent, Label: "Proposal content", Scopes: []Scope{ScopeRead, ScopeWrite}},
		Definition{Key: KeyAIGenerate, Label: "AI content generation", Scopes: []Scope{}},
		Definition{Key: KeyAnalytics, Label: "Usage analytics", Scopes: []Scope{ScopeRead}},
		Definition{Key: KeyUsers, Label: "Users"},
		Definition{Key: KeyRoles, Label: "Roles & permissions"},
		Definition{Key: KeyBilling, Label: "Billing plans"},
		Definition{Key: KeyAPIQuota, Label: "API quota", Scopes: []Scope{ScopeRead, ScopeWrite}},
		Definition{Key: KeySecurity, Label: "Security & IP access", Scopes: []Scope{ScopeRead, ScopeWrite}},
		Definition{Key: KeyBranding, Label: "Organization branding", Scopes: []Scope{ScopeRead, ScopeWrite}},
		Definition{Key: KeyAuditLogs, Label: "Audit logs", Scopes: []Scope{ScopeRead}},
		Definition{Key: KeyTerms, Label: "Terms of service", Scopes: []Scope{ScopeRead, ScopeWrite}},
		Definition{Key: KeyNotify, Label: "Notifications", Scopes: []Scope{ScopeRead}},
	)
}

// FullAccess grants every scope of every definition in c.
func FullAccess(c *Catalog) Set {
	out := make(Set)
	for _, def := range c.Definitions() {
		out[def.Key] = def.AllowedScopes()
	}
	return out
}
