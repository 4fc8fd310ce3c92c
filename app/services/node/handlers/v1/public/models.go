package public

import "github.com/hashvale/ledger/foundation/ledger/database"

type tx struct {
	From      database.AccountID `json:"from"`
	FromName  string             `json:"from_name"`
	To        database.AccountID `json:"to"`
	ToName    string             `json:"to_name"`
	Value     uint64             `json:"value"`
	TimeStamp int64              `json:"timestamp"`
	Signature string             `json:"signature"`
}

type balance struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance int64              `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

type submitTx struct {
	From      string `json:"from" validate:"required"`
	To        string `json:"to" validate:"required"`
	Value     uint64 `json:"value"`
	TimeStamp int64  `json:"timestamp" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}
