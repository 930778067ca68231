// Package factgraph builds queryable knowledge graphs from documents.
//
// Documents are parsed into plain text, split into overlapping chunks,
// and handed to a language model that extracts entities and
// relationships. Mentions are normalized so that surface variants of the
// same name collapse to one node, then upserted into a graph store. The
// store is either an external Neo4j database or an embedded in-memory
// graph with an atomic JSON snapshot on disk, selected by configuration.
// Questions in natural language are translated to Cypher, executed, and
// explained by a second model.
//
// # Basic Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := factgraph.New(cfg, slog.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Shutdown(ctx)
//
//	status := client.Initialize(ctx)
//	if !status.Overall {
//		log.Fatalf("initialization failed: %v", status.Issues)
//	}
//
//	result := client.ProcessDocument(ctx, "report.pdf", nil, "", "")
//	fmt.Printf("added %d entities, %d relationships\n",
//		result.EntitiesAdded, result.RelationshipsAdded)
//
//	answer := client.Query(ctx, "Who works for Acme Corp?")
//	fmt.Println(answer.Explanation)
//
// Without an extraction API key the client falls back to heuristic
// regex extraction; without a query API key natural-language queries
// degrade to an error result while direct search and statistics keep
// working. The graph store is the only hard requirement.
package factgraph
