// Package eventgrp maintains the group of handlers that stream node events
// and expose the genesis and mempool outside of JSON-RPC.
package eventgrp

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/lyrion-l2/lyrion-node/business/web/errs"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/lyrion-l2/lyrion-node/foundation/events"
	"github.com/lyrion-l2/lyrion-node/foundation/nameservice"
	"github.com/lyrion-l2/lyrion-node/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of event endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
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
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Mempool returns the set of queued transactions, optionally filtered by
// an account that sends or receives them.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var filter common.Address
	if acct := web.Param(r, "account"); acct != "" {
		addr, err := h.NS.Resolve(acct)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		filter = addr
	}

	trans := []tx{}
	for _, tran := range h.State.Mempool() {
		if filter != (common.Address{}) && tran.From != filter && tran.To != filter {
			continue
		}

		trans = append(trans, tx{
			Hash:      tran.Hash().Hex(),
			From:      tran.From.Hex(),
			FromName:  h.NS.Lookup(tran.From),
			To:        tran.To.Hex(),
			ToName:    h.NS.Lookup(tran.To),
			Type:      tran.Type.String(),
			Nonce:     tran.Nonce,
			Asset:     tran.Asset.String(),
			Pair:      tran.Pair,
			Value:     tran.Value.String(),
			GasPrice:  tran.GasPrice,
			Seq:       tran.Seq,
			TimeStamp: tran.TimeStamp,
		})
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}
