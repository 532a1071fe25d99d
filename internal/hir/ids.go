package hir

type (
	// InstrID numbers instructions monotonically within a function; the
	// order defines program order inside a block.
	InstrID int32
	// BlockID indexes into Func.Blocks.
	BlockID int32
	// ScopeID identifies a reactive scope.
	ScopeID int32
	// IdentID uniquely identifies an identifier instance pre-SSA.
	IdentID int32
)

const (
	NoInstrID InstrID = -1
	NoBlockID BlockID = -1
	NoScopeID ScopeID = -1
	NoIdentID IdentID = -1
)
