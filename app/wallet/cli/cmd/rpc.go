package cmd

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-resty/resty/v2"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
)

// client speaks JSON-RPC to the node.
type client struct {
	http *resty.Client
	id   int
}

func newClient(url string) *client {
	return &client{
		http: resty.New().
			SetBaseURL(url).
			SetTimeout(10 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *client) call(ctx context.Context, method string, result any, params ...any) error {
	c.id++

	if params == nil {
		params = []any{}
	}

	req := struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Method  string `json:"method"`
		Params  []any  `json:"params"`
	}{
		JSONRPC: "2.0",
		ID:      c.id,
		Method:  method,
		Params:  params,
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}

	r, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post("/")
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if resp.Error != nil {
		return fmt.Errorf("%s: %d %s", method, resp.Error.Code, resp.Error.Message)
	}

	if r.IsError() {
		return fmt.Errorf("%s: http status %s", method, r.Status())
	}

	if result == nil {
		return nil
	}

	return json.Unmarshal(resp.Result, result)
}

// submit fills in the chain id and nonce, signs the transaction and sends
// it to the node.
func (c *client) submit(ctx context.Context, privateKey *ecdsa.PrivateKey, tx database.Tx) (string, error) {
	tx.From = crypto.PubkeyToAddress(privateKey.PublicKey)

	var chainID string
	if err := c.call(ctx, "eth_chainId", &chainID); err != nil {
		return "", err
	}
	id, err := hexutil.DecodeUint64(chainID)
	if err != nil {
		return "", err
	}
	tx.ChainID = id

	var nonce string
	if err := c.call(ctx, "eth_getTransactionCount", &nonce, tx.From.Hex(), "pending"); err != nil {
		return "", err
	}
	if tx.Nonce, err = hexutil.DecodeUint64(nonce); err != nil {
		return "", err
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		return "", err
	}

	var hash string
	if err := c.call(ctx, "eth_sendTransaction", &hash, txObject(signedTx)); err != nil {
		return "", err
	}

	return hash, nil
}

// txObject renders the signed transaction in the shape accepted by
// eth_sendTransaction.
func txObject(tx database.SignedTx) map[string]any {
	obj := map[string]any{
		"chainId":  hexutil.EncodeUint64(tx.ChainID),
		"from":     tx.From.Hex(),
		"type":     hexutil.EncodeUint64(uint64(tx.Type)),
		"value":    hexutil.EncodeBig(tx.Value),
		"nonce":    hexutil.EncodeUint64(tx.Nonce),
		"gasPrice": hexutil.EncodeUint64(tx.GasPrice),
		"asset":    tx.Asset.String(),
		"v":        hexutil.EncodeBig(tx.V),
		"r":        hexutil.EncodeBig(tx.R),
		"s":        hexutil.EncodeBig(tx.S),
	}

	if tx.To != (common.Address{}) {
		obj["to"] = tx.To.Hex()
	}
	if tx.Pair != "" {
		obj["pair"] = tx.Pair
	}
	if len(tx.Data) > 0 {
		obj["data"] = hexutil.Encode(tx.Data)
	}

	for name, v := range map[string]*big.Int{"amount1": tx.Amount1, "minAmountOut": tx.MinAmountOut} {
		if v != nil && v.Sign() > 0 {
			obj[name] = hexutil.EncodeBig(v)
		}
	}

	return obj
}
