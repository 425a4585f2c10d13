// Package diagnostic provides structured errors, warnings and suggestions
// collected while checking mapping registries and manifests.
//
// Key capabilities:
//   - Duplicate or overlapping mapping reports
//   - Lossy wire conversion warnings
//   - Unknown struct references with "did you mean" suggestions
package diagnostic
