// Package storage reads scored leads from the ILG SQLite database.
//
// The database is owned by the scoring pipeline; this package only ever
// opens it read-only. Each LeadScore row is joined to its Contact and that
// contact's Organization with inner joins, so scores whose contact or
// organization is missing are left out rather than reported.
//
// Rows can be streamed with EachLead or collected with ListLeads:
//
//	store, err := storage.Open(ctx, "db/ilg.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	err = store.EachLead(ctx, "dental", func(l storage.Lead) error {
//	    return sink.Write(l)
//	})
package storage
