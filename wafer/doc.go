// Package wafer provides the data model and ingestion layer for wafer map analysis.
//
// # Reading Guide
//
// Start with these files to understand the data flowing through the engine:
//   - sample.go: Sample and the immutable Dataset a wafer is loaded into
//   - table.go: CSV tables and the column synonym resolution that builds Datasets
//   - config.go: the YAML-backed Config shared by every analysis stage
//
// # Architecture
//
// The wafer package defines the shared types; the analysis stages live in
// sub-packages and are chained leaf-first:
//   - wafer/interp/: scattered samples to a regular grid over the wafer disk
//   - wafer/zonal/: center/mid/edge zone statistics and the radial profile
//   - wafer/features/: fixed-order spatial feature vector per wafer
//   - wafer/anomaly/: batch standardization, PCA projection and isolation forest scoring
//   - wafer/pattern/: rule-based process-signature labels for flagged wafers
//   - wafer/pipeline/: batch orchestration with per-wafer fan-out and caller-owned memoization
//   - wafer/telemetry/: Prometheus run metrics
//
// Every stage is a pure function of its inputs. Nothing is cached at package
// level; callers that want memoization pass a pipeline.Cache explicitly.
package wafer
