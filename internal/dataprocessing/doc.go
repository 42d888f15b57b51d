// Package dataprocessing reshapes the wide driver tree sheet into the long
// table used for weekly performance analysis.
//
// # Stages
//
// A pipeline run applies, in order:
//
//  1. Parse: resolve the fiscal week columns of the header and read each
//     row into a WideRecord. Week headers stored as numbers are preferred;
//     text headers like "12" are used when no numeric header matches.
//  2. Unpivot: one LongRecord per row and week.
//  3. Perturb (optional): scale values by a seeded random factor.
//  4. Run-rate: rolling mean per series over a global week index, so the
//     first weeks of a year average with the last weeks of the prior one.
//  5. Year-on-year: inner join of current-period rows to prior-period rows
//     of the same series and week.
//  6. Recency: keep the most recent weeks that have positive values.
//
// Data gaps never stop a run. They are collected in Diagnostics, logged as
// warnings and counted in the pipeline_warnings_total metric.
//
// # Usage
//
//	sheet, err := dataprocessing.LoadSheet("driver_tree.xlsx")
//	if err != nil {
//	    return err
//	}
//	pipeline := dataprocessing.NewPipeline(dataprocessing.DefaultOptions(), logger)
//	result, err := pipeline.Run(ctx, sheet)
//
// ReadTransformed loads the pipeline output back for the web command.
package dataprocessing
