package models

// AddressRecord represents one normalized input row destined for geocoding.
type AddressRecord struct {
	RowID      int    // RowID is the 1-based, input-order-derived identifier of the row.
	Address    string // Address is the raw address text from the source table.
	HasAddress bool   // HasAddress is false when the address cell was blank or absent.
}
