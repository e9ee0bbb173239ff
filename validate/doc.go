// Package validate checks agent graphs before they are simulated or run.
//
// [ValidateAgent] runs independent sub-checks (structure, connections, data
// flow, schemas, providers, topology). The first blocking failure is
// reported as the error; warnings from every sub-check are always returned.
// [ValidateNode] applies the per-kind rules to a single node and
// [ValidatePayload] checks caller data against an input schema.
package validate
