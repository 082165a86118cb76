package storage

import (
	"context"
	"database/sql"

	apperrors "ilgcli/internal/errors"
)

// Lead is one scored lead joined with its contact and organization.
// Text columns keep their NULL-ness so writers can emit empty fields.
// Score and flag columns hold whatever the driver returned (nil, int64,
// float64, string or []byte): the scoring database is written elsewhere and
// off-type values are exported as stored rather than failing the scan.
type Lead struct {
	Tier            sql.NullString
	CompositeScore  any
	FirstName       sql.NullString
	LastName        sql.NullString
	Title           sql.NullString
	Email           sql.NullString
	LinkedInURL     sql.NullString
	IsDecisionMaker any
	OrgName         sql.NullString
	OrgWebsite      sql.NullString
	State           sql.NullString
	City            sql.NullString
	OrgFitScore     any
	SignalScore     any
	RoleScore       any
	// ScoreOrgFit is the organization-fit sub-score stored on the score row.
	// It is selected but not exported.
	ScoreOrgFit any
	ScoredAt    sql.NullString
}

// scored_at is cast to TEXT so the driver hands back the stored value
// rather than a parsed time.
const leadsQuery = `
	SELECT
		ls.tier,
		ls.composite_score,
		c.first_name,
		c.last_name,
		c.title,
		c.email,
		c.linkedin_url,
		c.is_decision_maker,
		o.name AS org_name,
		o.website AS org_website,
		o.state,
		o.city,
		o.fit_score AS org_fit_score,
		ls.signal_score,
		ls.role_score,
		ls.org_fit_score AS score_org_fit,
		CAST(ls.scored_at AS TEXT) AS scored_at
	FROM lead_scores ls
	JOIN contacts c ON ls.contact_id = c.id
	JOIN organizations o ON c.org_id = o.id
	WHERE 1=1`

// buildLeadsQuery returns the lead query and its arguments. An empty
// category selects every vertical.
func buildLeadsQuery(category string) (string, []any) {
	query := leadsQuery
	var args []any

	if category != "" {
		query += " AND ls.vertical_id = ?"
		args = append(args, category)
	}

	query += " ORDER BY ls.composite_score DESC"
	return query, args
}

// EachLead runs the lead query and calls fn for every row in descending
// composite score order. Iteration stops at the first error; errors
// returned by fn are passed through unchanged.
func (s *Store) EachLead(ctx context.Context, category string, fn func(Lead) error) error {
	query, args := buildLeadsQuery(category)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewStorageError("query lead scores", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Lead
		if err := rows.Scan(
			&l.Tier,
			&l.CompositeScore,
			&l.FirstName,
			&l.LastName,
			&l.Title,
			&l.Email,
			&l.LinkedInURL,
			&l.IsDecisionMaker,
			&l.OrgName,
			&l.OrgWebsite,
			&l.State,
			&l.City,
			&l.OrgFitScore,
			&l.SignalScore,
			&l.RoleScore,
			&l.ScoreOrgFit,
			&l.ScoredAt,
		); err != nil {
			return apperrors.NewStorageError("scan lead score", err)
		}
		if err := fn(l); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return apperrors.NewStorageError("iterate lead scores", err)
	}
	return nil
}

// ListLeads materializes every matching lead.
func (s *Store) ListLeads(ctx context.Context, category string) ([]Lead, error) {
	var leads []Lead
	err := s.EachLead(ctx, category, func(l Lead) error {
		leads = append(leads, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return leads, nil
}
