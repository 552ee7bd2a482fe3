// Package orchestrator exposes the DWG import contract: SurveyLayers for a
// per-layer histogram, then ParseWithLayers for the filtered, normalized
// document. It owns fallback policy, warning aggregation and the split
// between fatal and degraded results.
package orchestrator
