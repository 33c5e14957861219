// Package core provides the cleaning logic for transaction CSV data.
//
// This package is the heart of txclean, containing all domain logic
// independent of any file format or transport layer. It can be used by the
// HTTP server, the CLI or tests without modification.
//
// # Architecture
//
// A run has two phases over an in-memory [Dataset]:
//
//   - Validation: read-only [Validator] implementations classify defects per
//     column. [Aggregate] runs them in a fixed order and merges their findings
//     into an [ErrorReport].
//   - Remediation: the [Dispatcher] reads the report and the [Config] and
//     applies a fixed, gated sequence of [Cleaner] steps. Each step returns a
//     new dataset; the input is never modified.
//
// # Error Report
//
// A report maps a column name to the defect kinds found in it:
//
//	report := core.Aggregate(ds, cfg)
//	// {"Total Spent": [NULL_VALUES TYPE_ERROR], "Transaction ID": [DUPLICATED_VALUES]}
//
// A dataset with no rows yields the sentinel {"__dataset__": [NULL_VALUES]};
// see [ErrorReport.IsEmptyDataset].
//
// # Remediation Order
//
//  1. Remove duplicates on the key column ([Deduplicator])
//  2. Coerce to the declared schema ([SchemaCoercer])
//  3. Impute missing amounts ([AmountImputer])
//  4. Infer the category from the item ([CategoryInferrer])
//  5. Drop rows with nulls in critical columns ([CriticalDropper])
//  6. Fill remaining nulls in allowlisted columns ([NullFiller])
//
// Cleaning is idempotent: validating and cleaning an already cleaned dataset
// returns it unchanged.
//
// # Error Handling
//
// Data-quality findings are reported, never returned as errors. Errors are
// reserved for precondition failures ([ErrMissingColumn], [ErrInvalidConfig],
// [ErrInvalidType]) and are mapped to user-facing messages by [MapError].
package core
