package models

// GeocodeResult is the per-row outcome of attempting to resolve an AddressRecord.
// Nullable fields are pointers so that unmatched rows serialize as JSON null.
// Matched implies FormattedAddress, Latitude and Longitude are all non-nil;
// unmatched rows carry nil for all three.
type GeocodeResult struct {
	RowID            int      `json:"row_id"`
	InputAddress     *string  `json:"input_address"`
	Matched          bool     `json:"matched"`
	FormattedAddress *string  `json:"formatted_address"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	CandidateCount   int      `json:"candidate_count"`
	ProviderStatus   *string  `json:"provider_status"`
}
