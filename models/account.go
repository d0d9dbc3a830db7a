package models

// Account is one entry in the chart of accounts. The full set is replaced
// wholesale on re-ingestion, never patched field by field.
type Account struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type AccountType `json:"type"`
}

func decodeAccount(row rawRecord) Account {
	return Account{
		ID:   row.str("account_id", "id"),
		Name: row.str("account_name", "name"),
		Type: AccountType(row.str("account_type", "type")),
	}
}

// AccountIDSet builds the set of valid ledger account identifiers.
func AccountIDSet(accounts []Account) map[string]struct{} {
	set := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		set[a.ID] = struct{}{}
	}
	return set
}
