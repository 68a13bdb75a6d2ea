package constants

/*
	Defines a set of base level
	constants and enums to be used
	throughout the LD server and it's
	associated services.
*/
type CorrelationKind string
type VariantFormat string
type GroupType string
type IdentifierType string
type ColumnType string
type FilterOp string
type ResultShape string
type RegistryDriver string
type FileDriver string
type EngineDriver string

// distinguished sample subset containing every loaded sample
const AllSamples = "ALL"
