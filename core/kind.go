package core

// ActionKind is the closed category an Action belongs to. Each value doubles
// as the bare token used in the first segment of an encoded action key.
type ActionKind string

const (
	// KindCustom marks user-defined actions outside the built-in categories.
	KindCustom ActionKind = "custom"
	// KindModel marks generative model actions.
	KindModel ActionKind = "model"
	// KindFlow marks user-defined composite workflows.
	KindFlow ActionKind = "flow"
	// KindTool marks callable tools exposed to models.
	KindTool ActionKind = "tool"
	// KindPrompt marks prompt template actions.
	KindPrompt ActionKind = "prompt"
	// KindExecutablePrompt marks rendered prompts that can be invoked directly.
	KindExecutablePrompt ActionKind = "executable-prompt"
	// KindRetriever marks document retrieval actions.
	KindRetriever ActionKind = "retriever"
	// KindIndexer marks document indexing actions.
	KindIndexer ActionKind = "indexer"
	// KindReranker marks result reranking actions.
	KindReranker ActionKind = "reranker"
	// KindEvaluator marks output evaluation actions.
	KindEvaluator ActionKind = "evaluator"
	// KindEmbedder marks embedding actions.
	KindEmbedder ActionKind = "embedder"
	// KindUtil marks internal utility actions.
	KindUtil ActionKind = "util"
)

var knownKinds = map[ActionKind]struct{}{
	KindCustom:           {},
	KindModel:            {},
	KindFlow:             {},
	KindTool:             {},
	KindPrompt:           {},
	KindExecutablePrompt: {},
	KindRetriever:        {},
	KindIndexer:          {},
	KindReranker:         {},
	KindEvaluator:        {},
	KindEmbedder:         {},
	KindUtil:             {},
}

// Valid reports whether k is one of the known action kinds.
func (k ActionKind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// String returns the canonical lower-case token for the kind.
func (k ActionKind) String() string { return string(k) }
