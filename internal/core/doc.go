// Package core runs uploaded files through the profiling engine and takes
// care of everything around a pass.
//
// # Lifecycle
//
// [Service.StartAnalysis] persists the upload, takes an analysis slot from
// the [AnalysisLimiter] and returns the dataset ID immediately. A background
// goroutine then:
//
//  1. streams the stored file through profile.CSVSource and profile.Start
//  2. caches the result (store.ResultCache, TTL-bound)
//  3. records (id, original name, rows, columns) in store.MetadataStore
//  4. pushes the outcome to registered WebSocket clients via a [Notifier]
//
// Progress is fanned out to subscribers ([Service.SubscribeProgress]) and
// finished analyses stay queryable in memory for a few minutes.
//
// # Errors
//
// [MapError] turns any error from this package, the store or the engine into
// a [UserMessage] with a support code.
package core
