package app

// ListRequest carries the common list filters. PartyID is the supplier for
// purchases and supplier returns, and the bill for sales returns.
type ListRequest struct {
	Search  string
	PartyID int
	Limit   int
	Offset  int
}
