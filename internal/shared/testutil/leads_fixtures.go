package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// LeadsSchema creates the three tables the exporter reads. Foreign keys are
// declared but not enforced, so tests can insert orphaned rows.
const LeadsSchema = `
CREATE TABLE IF NOT EXISTS organizations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	website TEXT,
	state TEXT,
	city TEXT,
	fit_score REAL
);

CREATE TABLE IF NOT EXISTS contacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	org_id INTEGER REFERENCES organizations(id),
	first_name TEXT,
	last_name TEXT,
	title TEXT,
	email TEXT,
	linkedin_url TEXT,
	is_decision_maker INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lead_scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	contact_id INTEGER REFERENCES contacts(id),
	vertical_id TEXT,
	composite_score REAL,
	tier TEXT,
	signal_score REAL,
	role_score REAL,
	org_fit_score REAL,
	scored_at TEXT
);
`

// Organization is a fixture row for the organizations table
type Organization struct {
	Name     string
	Website  string
	State    string
	City     string
	FitScore float64
}

// Contact is a fixture row for the contacts table
type Contact struct {
	OrgID           int64
	FirstName       string
	LastName        string
	Title           string
	Email           string
	LinkedInURL     string
	IsDecisionMaker bool
}

// LeadScore is a fixture row for the lead_scores table
type LeadScore struct {
	ContactID      int64
	VerticalID     string
	CompositeScore float64
	Tier           string
	SignalScore    float64
	RoleScore      float64
	OrgFitScore    float64
	ScoredAt       string
}

// LeadsDB is a writable SQLite fixture with the lead tables created
type LeadsDB struct {
	Path string
	db   *sql.DB
	t    *testing.T
}

// NewLeadsDB creates the database file at path, creating parent directories,
// and applies LeadsSchema. The connection is closed on test cleanup.
func NewLeadsDB(t *testing.T, path string) *LeadsDB {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(LeadsSchema)
	require.NoError(t, err)

	f := &LeadsDB{Path: path, db: db, t: t}
	t.Cleanup(func() { f.Close() })
	return f
}

// NewLeadsDBInRoot creates the fixture at <root>/db/ilg.db
func NewLeadsDBInRoot(t *testing.T, root string) *LeadsDB {
	t.Helper()
	return NewLeadsDB(t, filepath.Join(root, "db", "ilg.db"))
}

// AddOrganization inserts an organization and returns its id
func (f *LeadsDB) AddOrganization(o Organization) int64 {
	f.t.Helper()
	return f.insert(
		`INSERT INTO organizations (name, website, state, city, fit_score) VALUES (?, ?, ?, ?, ?)`,
		o.Name, o.Website, o.State, o.City, o.FitScore,
	)
}

// AddContact inserts a contact and returns its id
func (f *LeadsDB) AddContact(c Contact) int64 {
	f.t.Helper()
	decisionMaker := 0
	if c.IsDecisionMaker {
		decisionMaker = 1
	}
	return f.insert(
		`INSERT INTO contacts (org_id, first_name, last_name, title, email, linkedin_url, is_decision_maker)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.OrgID, c.FirstName, c.LastName, c.Title, c.Email, c.LinkedInURL, decisionMaker,
	)
}

// AddLeadScore inserts a lead score and returns its id
func (f *LeadsDB) AddLeadScore(s LeadScore) int64 {
	f.t.Helper()
	return f.insert(
		`INSERT INTO lead_scores (contact_id, vertical_id, composite_score, tier, signal_score, role_score, org_fit_score, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ContactID, s.VerticalID, s.CompositeScore, s.Tier, s.SignalScore, s.RoleScore, s.OrgFitScore, s.ScoredAt,
	)
}

// AddLead inserts an organization, a contact at it and one score for that
// contact, returning the score id
func (f *LeadsDB) AddLead(vertical string, score float64, tier string) int64 {
	f.t.Helper()
	orgID := f.AddOrganization(Organization{
		Name:     fmt.Sprintf("Org %s %.2f", vertical, score),
		FitScore: 0.5,
	})
	contactID := f.AddContact(Contact{
		OrgID:     orgID,
		FirstName: "Lead",
		LastName:  fmt.Sprintf("%.2f", score),
	})
	return f.AddLeadScore(LeadScore{
		ContactID:      contactID,
		VerticalID:     vertical,
		CompositeScore: score,
		Tier:           tier,
		ScoredAt:       "2025-01-15 10:00:00",
	})
}

// SeedAcme inserts the single Acme / Jane Doe lead used in examples
func (f *LeadsDB) SeedAcme() {
	f.t.Helper()
	orgID := f.AddOrganization(Organization{
		Name:     "Acme",
		Website:  "https://acme.example",
		State:    "CA",
		City:     "San Jose",
		FitScore: 0.8,
	})
	contactID := f.AddContact(Contact{
		OrgID:           orgID,
		FirstName:       "Jane",
		LastName:        "Doe",
		Title:           "Practice Owner",
		Email:           "jane@acme.example",
		LinkedInURL:     "https://linkedin.com/in/janedoe",
		IsDecisionMaker: true,
	})
	f.AddLeadScore(LeadScore{
		ContactID:      contactID,
		VerticalID:     "dental",
		CompositeScore: 92.5,
		Tier:           "A",
		SignalScore:    88.0,
		RoleScore:      95.0,
		OrgFitScore:    0.8,
		ScoredAt:       "2025-01-15 10:30:00",
	})
}

// Exec runs a raw statement, for rows the typed helpers cannot express
func (f *LeadsDB) Exec(query string, args ...any) {
	f.t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(f.t, err)
}

// Close closes the fixture connection
func (f *LeadsDB) Close() error {
	if f.db == nil {
		return nil
	}
	err := f.db.Close()
	f.db = nil
	return err
}

func (f *LeadsDB) insert(query string, args ...any) int64 {
	f.t.Helper()
	res, err := f.db.Exec(query, args...)
	require.NoError(f.t, err)
	id, err := res.LastInsertId()
	require.NoError(f.t, err)
	return id
}
