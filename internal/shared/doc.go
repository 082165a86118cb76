// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides test-only support:
//
//   - LeadsDB builds a throwaway SQLite database with the organizations,
//     contacts and lead_scores tables and inserts fixture rows
//   - NewTestLogger returns a slog.Logger whose records can be asserted on
//
// Example usage:
//
//	func TestExport(t *testing.T) {
//	    root := t.TempDir()
//	    db := testutil.NewLeadsDBInRoot(t, root)
//	    db.SeedAcme()
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	    testutil.AssertLogAttr(t, logs, "rows", int64(1))
//	}
package shared
