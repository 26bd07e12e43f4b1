// Package download coordinates granule file transfers: a bounded pool of
// parallel HTTP downloads with per-task progress tracking, retry, and
// cancellation. Tasks are independent; one failing transfer never blocks
// or aborts the others.
package download
