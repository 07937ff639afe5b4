// Package sqlagent answers natural-language questions about a relational
// database by letting a language model drive read-only inspection tools.
//
// The root package holds the contracts shared by every component: the
// [Model] the agent talks to, the [Tool] interface, the [Decision] a model
// response is parsed into, the append-only [Transcript] of a run, and the
// trace [Event] types reported to a [TraceSink].
//
// # Quick Start
//
//	db, _ := store.Open(ctx, store.DriverSQLite, "sample.db")
//	defer db.Close()
//
//	llm, _ := models.New(ctx, models.ProviderConfig{
//	    Provider: models.ProviderGoogleAI,
//	    APIKey:   os.Getenv("GEMINI_API_KEY"),
//	})
//	model := models.NewRateLimited(llm)
//
//	agent := react.NewAgent(model, dbtools.NewRegistry(db)).
//	    WithTraceSink(loggers.NewTraceLogger(os.Stdout))
//
//	fmt.Println(agent.Run(ctx, "How many customers live in Chicago?"))
//
// # Wire Protocol
//
// The model answers every step with plain text using two markers:
//
//	THOUGHT: I need to find tables first
//	ACTION: list_tables{}
//
// or, once it knows the answer:
//
//	THOUGHT: I have the count
//	FINAL ANSWER: There is one customer in Chicago.
//
// See the parser package for the exact grammar.
//
// # Packages
//
//   - parser: model text to [Decision]
//   - toolchain: tool catalog, argument validation and dispatch
//   - dbtools: list_tables, describe_table and query_database
//   - store: SQLite and Postgres access
//   - models: langchaingo providers and the rate-limited client
//   - agents/react: the step-bounded think, act, observe loop
//   - loggers: trace sinks for files, OpenTelemetry and Prometheus
package sqlagent
