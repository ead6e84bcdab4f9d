// Package fabric provides a read-only storage and query engine for
// annotated text corpora modeled as typed, hierarchical graphs.
//
// A corpus is a compiled, immutable v{N}/ directory (meta.json, warp
// arrays, feature and edge files); Context-Fabric never writes one, only
// loads and queries it.
//
// # Quick Start
//
//	fab, err := fabric.Open("./bhsa-corpus", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fab.Close()
//
//	api, err := fab.Load("all")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	words, err := api.N.Walk("word")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for n := range words {
//	    text, _ := api.T.Text(n, "")
//	    fmt.Println(text)
//	}
//
// # Querying
//
// SPIN templates express containment- and order-based structural queries
// over the corpus; Search shares one plan across every return_type
// variant:
//
//	page, err := api.S.Search(ctx, `
//	phrase function=Pred
//	  word sp=verb
//	`, spin.SearchOptions{ReturnType: spin.ReturnResults, Limit: 50})
//
// # Key Features
//
//   - Zero-copy mmap-backed warp arrays and feature columns
//   - Publish-once, lazily materialized feature handles
//   - Structural query planning with exact cardinality estimates
//   - Keyed result cache with cursor-based pagination (package spincache)
//   - Optional S3/MinIO corpus fetch into a local cache dir (package remotestore)
package fabric
