package exporter

import (
	"database/sql/driver"

	"ilgcli/internal/storage"
)

// LeadHeaders is the header row of every lead export, in column order
var LeadHeaders = []string{
	"tier",
	"composite_score",
	"first_name",
	"last_name",
	"title",
	"email",
	"linkedin_url",
	"is_decision_maker",
	"org_name",
	"org_website",
	"state",
	"city",
	"org_fit_score",
	"signal_score",
	"role_score",
	"scored_at",
}

// LeadRecord converts a lead into a CSV record matching LeadHeaders
func LeadRecord(l storage.Lead) []string {
	return []string{
		formatNullString(l.Tier),
		formatValue(l.CompositeScore),
		formatNullString(l.FirstName),
		formatNullString(l.LastName),
		formatNullString(l.Title),
		formatNullString(l.Email),
		formatNullString(l.LinkedInURL),
		formatValue(l.IsDecisionMaker),
		formatNullString(l.OrgName),
		formatNullString(l.OrgWebsite),
		formatNullString(l.State),
		formatNullString(l.City),
		formatValue(l.OrgFitScore),
		formatValue(l.SignalScore),
		formatValue(l.RoleScore),
		formatNullString(l.ScoredAt),
	}
}

// LeadCells converts a lead into typed spreadsheet cells matching
// LeadHeaders. Scores and flags keep their stored type; NULL columns are
// left blank.
func LeadCells(l storage.Lead) []interface{} {
	cell := func(v driver.Valuer) interface{} {
		val, _ := v.Value()
		return val
	}
	value := func(v any) interface{} {
		if b, ok := v.([]byte); ok {
			return string(b)
		}
		return v
	}

	return []interface{}{
		cell(l.Tier),
		value(l.CompositeScore),
		cell(l.FirstName),
		cell(l.LastName),
		cell(l.Title),
		cell(l.Email),
		cell(l.LinkedInURL),
		value(l.IsDecisionMaker),
		cell(l.OrgName),
		cell(l.OrgWebsite),
		cell(l.State),
		cell(l.City),
		value(l.OrgFitScore),
		value(l.SignalScore),
		value(l.RoleScore),
		cell(l.ScoredAt),
	}
}
