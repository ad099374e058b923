package repository

// StructSummary is a struct with its derived item count.
type StructSummary struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	ItemCount int64  `json:"itemCount"`
}

// ManufacturerCodeRow is a manufacturer specific row of a cluster, command
// or attribute table.
type ManufacturerCodeRow struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	ManufacturerCode int64  `json:"manufacturerCode"`
}

// ResponseStats summarizes request/response linking of one package.
// UnmatchedRequests counts commands named "...Request" without a response.
type ResponseStats struct {
	Commands          int64 `json:"commands"`
	WithResponse      int64 `json:"withResponse"`
	UnmatchedRequests int64 `json:"unmatchedRequests"`
}

// TableCount is the number of rows a package owns in one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// DuplicateName is a type name declared more than once in a package.
type DuplicateName struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
