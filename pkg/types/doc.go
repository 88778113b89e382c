// Package types defines the tracker's entity records, enumerations, the
// RowStore contract that every tabular backend implements, remote
// configuration accessors, and the standard errors shared across packages.
package types
