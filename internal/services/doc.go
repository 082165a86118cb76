// Package services implements the lead export workflow.
//
// LeadExportService ties the other packages together for one run:
//
//	1. Validate the category and output path arguments
//	2. Check the database file exists (NOT_FOUND otherwise, nothing written)
//	3. Ensure the exports directory exists
//	4. Open the database read-only and query leads by descending score
//	5. Write the header and one row per lead, or nothing for zero rows
//
// Each run is wrapped in an "export_leads" span and recorded on the
// lead_export_* metrics. Errors are returned as AppErrors so the command
// can map them to exit codes.
//
// Example usage:
//
//	svc, err := services.NewLeadExportService(cfg, telemetry, logger)
//	if err != nil {
//	    return err
//	}
//	result, err := svc.Export(ctx, validation.ExportRequest{Category: "dental"})
package services
