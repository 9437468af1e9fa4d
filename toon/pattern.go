package toon

// PatternType identifies one entry of the fixed detection catalog. The
// declaration order is the catalog priority order and the deterministic
// tie-break for equal confidences.
type PatternType uint8

const (
	PatternAPIResponse PatternType = iota
	PatternDatabaseRecord
	PatternUserData
	PatternPagination
	PatternNestedAddress
	PatternNestedCoordinates
	PatternNestedDimensions
	PatternNestedMetadata
	PatternHomogeneousArray
	PatternConsistentSchemaArray
	PatternRepeatedStructure
	PatternTimeSeries
	PatternGraphNode
	PatternTreeStructure
	PatternEnumValues
	PatternSparseArray
	PatternDeepNesting
)

// String returns the pattern type name.
func (t PatternType) String() string {
	switch t {
	case PatternAPIResponse:
		return "api_response"
	case PatternDatabaseRecord:
		return "database_record"
	case PatternUserData:
		return "user_data"
	case PatternPagination:
		return "pagination"
	case PatternNestedAddress:
		return "nested_address"
	case PatternNestedCoordinates:
		return "nested_coordinates"
	case PatternNestedDimensions:
		return "nested_dimensions"
	case PatternNestedMetadata:
		return "nested_metadata"
	case PatternHomogeneousArray:
		return "homogeneous_array"
	case PatternConsistentSchemaArray:
		return "consistent_schema_array"
	case PatternRepeatedStructure:
		return "repeated_structure"
	case PatternTimeSeries:
		return "time_series"
	case PatternGraphNode:
		return "graph_node"
	case PatternTreeStructure:
		return "tree_structure"
	case PatternEnumValues:
		return "enum_values"
	case PatternSparseArray:
		return "sparse_array"
	case PatternDeepNesting:
		return "deep_nesting"
	default:
		return "unknown"
	}
}

// Pattern is one detected shape with its supporting evidence. Produced
// fresh per Analyze call, never mutated afterward.
type Pattern struct {
	Type       PatternType
	Confidence float64 // in [0,1]
	Potential  float64 // estimated compression potential, in [0,1]
	Location   string  // tree path of the strongest match
	Keys       []string
	Count      int
	Note       string
}
