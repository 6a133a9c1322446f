package schema

// WalletCoinTransactionTable represents the 'wallet.cointransaction' table
type WalletCoinTransactionTable struct {
	Table           string
	ID              string
	UserID          string
	Amount          string
	TransactionType string
	ReferenceType   string
	ReferenceID     string
	Status          string
	CreatedAt       string
}

// WalletCoinTransaction is the schema definition for wallet.cointransaction
var WalletCoinTransaction = WalletCoinTransactionTable{
	Table:           "wallet.cointransaction",
	ID:              "id",
	UserID:          "userid",
	Amount:          "amount",
	TransactionType: "transactiontype",
	ReferenceType:   "referencetype",
	ReferenceID:     "referenceid",
	Status:          "status",
	CreatedAt:       "createdat",
}

func (t WalletCoinTransactionTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Amount, t.TransactionType, t.ReferenceType, t.ReferenceID, t.Status, t.CreatedAt,
	}
}
