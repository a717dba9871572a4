// Package util provides small string helpers shared across the pipeline:
// string distance for the segment reconciler's topic comparison and slice
// membership for validation.
package util
