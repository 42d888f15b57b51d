// Package analysis turns the transformed driver tree table into hosted
// model prompts.
//
// Prepare selects the latest fiscal week of the current period that has
// positive values and renders its rows as a markdown table. A Session holds
// that prepared context and a Generator, produces the cached weekly summary
// and answers free-form questions about the same table.
package analysis
