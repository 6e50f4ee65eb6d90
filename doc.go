// Package lexrag answers legal questions about domestic violence cases from
// a labelled knowledge base of annotated case text.
//
// An Engine loads the knowledge base, embeds every chunk once at startup
// and then serves retrieval and answering requests:
//
//	cfg, err := lexrag.LoadConfig("lexrag.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := lexrag.NewEngine(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	result, err := engine.Retrieve(ctx, "Was dowry demanded?", 2)
//
// Retrieval picks the label whose top-k chunks are, on average, most
// similar to the question. A result without a match means no label scored
// above zero.
package lexrag
