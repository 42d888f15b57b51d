// Package exporter writes the transformed driver tree table.
//
// The output format follows the file extension: .xlsx is written with the
// excelize stream writer, .csv with a UTF-8 BOM so spreadsheet tools detect
// the encoding. Numbers are written at full precision and null values as
// empty cells, so dataprocessing.ReadTransformed reads back exactly what was
// written.
//
// Example usage:
//
//	if err := exporter.WriteTransformed("driver_tree_transformed.xlsx", result.Records); err != nil {
//	    return err
//	}
package exporter
