// Package metrics counts log deliveries with Prometheus collectors and reads
// runtime memory statistics for run summaries.
package metrics
