// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashvale/ledger/foundation/events"
	"github.com/hashvale/ledger/foundation/ledger/database"
	"github.com/hashvale/ledger/foundation/ledger/network"
	"github.com/hashvale/ledger/foundation/ledger/state"
	"github.com/hashvale/ledger/foundation/nameservice"
	"github.com/hashvale/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Sync  *network.Synchronizer
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Chain returns the full set of blocks on this node.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.Chain()
	return web.Respond(ctx, w, chain, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pool := h.State.RetrieveMempool()

	trans := make([]tx, 0, len(pool))
	for _, tran := range pool {
		trans = append(trans, tx{
			From:      tran.From,
			FromName:  h.NS.Lookup(tran.From),
			To:        tran.To,
			ToName:    h.NS.Lookup(tran.To),
			Value:     tran.Value,
			TimeStamp: tran.TimeStamp,
			Signature: tran.Signature,
		})
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Balances returns the current balance for one account or for every
// account seen on the chain.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var accounts []database.AccountID
	switch account {
	case "":
		accounts = h.chainAccounts()

	default:
		accountID, err := database.ToAccountID(account)
		if err != nil {
			return web.NewRequestError(err, http.StatusBadRequest)
		}
		accounts = []database.AccountID{accountID}
	}

	resp := balances{
		LatestBlock: h.State.RetrieveLatestBlock().Hash,
		Uncommitted: h.State.QueryMempoolLength(),
	}
	for _, accountID := range accounts {
		resp.Balances = append(resp.Balances, balance{
			Account: accountID,
			Name:    h.NS.Lookup(accountID),
			Balance: h.State.BalanceOf(accountID),
		})
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitWalletTransaction adds a new signed transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx submitTx
	if err := web.Decode(r, &signedTx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	from, err := database.ToAccountID(signedTx.From)
	if err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}
	to, err := database.ToAccountID(signedTx.To)
	if err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	tran := database.Tx{
		From:      from,
		To:        to,
		Value:     signedTx.Value,
		TimeStamp: signedTx.TimeStamp,
		Signature: signedTx.Signature,
	}

	h.Log.Infow("add wallet tran", "traceid", v.TraceID, "from", tran.From, "to", tran.To, "value", tran.Value)
	if err := h.State.SubmitWalletTransaction(tran); err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining signals the node to mine the pending transactions.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peer upgrades the connection to a web socket and hands it to the
// synchronizer. The call blocks for the life of the connection.
func (h Handlers) Peer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.Sync.HandleConn(c)
	return nil
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// chainAccounts walks the chain and collects every account that has
// appeared in a transaction.
func (h Handlers) chainAccounts() []database.AccountID {
	seen := make(map[database.AccountID]struct{})
	var accounts []database.AccountID

	add := func(accountID database.AccountID) {
		if accountID == "" {
			return
		}
		if _, exists := seen[accountID]; exists {
			return
		}
		seen[accountID] = struct{}{}
		accounts = append(accounts, accountID)
	}

	for _, block := range h.State.Chain() {
		for _, tran := range block.Trans {
			add(tran.From)
			add(tran.To)
		}
	}

	return accounts
}
