// Package amalgam merges a script and every source file it transitively
// imports into one self-contained file.
//
// # Pipeline
//
// A build runs in three steps:
//
//  1. Load: starting from the root file, parse each file's directive header
//     (blank lines, comments, "using module", "using namespace", "#requires"
//     and an optional param block) and follow "using module ./path"
//     references until every reachable file is known. Each file is parsed
//     exactly once, and cycles are safe.
//
//  2. Flatten: order every dependency below the root so each module comes
//     after everything it requires. A shared dependency appears once.
//
//  3. Amalgamate: write the root's header, one namespace injection block,
//     each dependency's content with import directives stripped, and
//     finally the root's code.
//
// # Usage
//
//	e, err := amalgam.New(amalgam.WithWorkingDir("."))
//	if err != nil { ... }
//
//	res, err := e.Build(ctx, "main.ps1", "dist/bundle.ps1")
//	for _, err := range amalgam.Errors(err) {
//		fmt.Fprintln(os.Stderr, err)
//	}
//
// Load collects every missing dependency before failing, so one run reports
// all of them. Build writes its output atomically: on failure the previous
// file at the output path is left untouched.
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] gives read-only views of a
// loaded [Graph]: [QueryBuilder.Dependencies], [QueryBuilder.Dependents],
// [QueryBuilder.Hierarchy], [QueryBuilder.Namespaces] and
// [QueryBuilder.NativeModules].
//
// # Manifest
//
// With [WithManifest], every successful build is recorded in a SQLite
// database: the output hash, and for each bundled module its position,
// content hash, requirements and namespaces.
package amalgam
