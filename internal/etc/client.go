// Package etc talks JSON-RPC 2.0 to an Ethereum Classic node (Mantis or
// any geth-compatible client) on behalf of the wallet API.
package etc

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/imroc/req"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int64
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("[%d]%s", e.Code, e.Message)
}

// Client is an ETC node RPC client. It performs RPCs over HTTP using JSON
// request and responses.
type Client struct {
	URL    string
	Debug  bool
	client *req.Req
	logger *slog.Logger
	nextID uint64
}

// NewClient inits a rpc client for the node at url.
func NewClient(url string, timeout time.Duration, debug bool, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	api := req.New()
	if timeout > 0 {
		api.SetTimeout(timeout)
	}
	return &Client{
		URL:    strings.TrimSuffix(url, "/"),
		Debug:  debug,
		client: api,
		logger: logger,
	}
}

// call invokes a remote procedure and returns its result member.
func (c *Client) call(ctx context.Context, method string, params []interface{}) (*gjson.Result, error) {
	if c.client == nil || c.URL == "" {
		return nil, errors.New("API url is not setup")
	}
	if params == nil {
		params = []interface{}{}
	}

	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      atomic.AddUint64(&c.nextID, 1),
		"method":  method,
		"params":  params,
	}
	header := req.Header{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}

	if c.Debug {
		c.logger.Debug("rpc request", slog.String("method", method), slog.Any("params", params))
	}

	r, err := c.client.Post(c.URL, req.BodyJSON(&body), header, ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "rpc %s", method)
	}

	if c.Debug {
		c.logger.Debug("rpc response", slog.String("method", method), slog.String("body", r.String()))
	}

	if err := isError(r); err != nil {
		return nil, errors.Wrapf(err, "rpc %s", method)
	}

	result := gjson.GetBytes(r.Bytes(), "result")
	return &result, nil
}

// isError reports transport level and JSON-RPC level failures.
func isError(r *req.Resp) error {
	if r.Response().StatusCode != http.StatusOK {
		return fmt.Errorf("[%d]%s", r.Response().StatusCode, r.Response().Status)
	}

	resp := gjson.ParseBytes(r.Bytes())
	if resp.Get("error").IsObject() {
		return &RPCError{
			Code:    resp.Get("error.code").Int(),
			Message: resp.Get("error.message").String(),
		}
	}
	if !resp.Get("result").Exists() {
		return errors.New("malformed rpc response: missing result")
	}
	return nil
}

// Accounts lists the addresses the node holds keys for.
func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	r, err := c.call(ctx, "eth_accounts", nil)
	if err != nil {
		return nil, err
	}
	accounts := make([]string, 0, len(r.Array()))
	for _, a := range r.Array() {
		accounts = append(accounts, a.String())
	}
	return accounts, nil
}

// GetBalance returns the latest balance of address in wei.
func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	r, err := c.call(ctx, "eth_getBalance", []interface{}{address, "latest"})
	if err != nil {
		return nil, err
	}
	balance, err := hexutil.DecodeBig(r.String())
	if err != nil {
		return nil, errors.Wrapf(err, "decode balance %q", r.String())
	}
	return balance, nil
}

// Syncing reports the node's block sync state. When the node is not syncing
// eth_syncing returns false and only the syncing flag is meaningful.
func (c *Client) Syncing(ctx context.Context) (current, highest uint64, syncing bool, err error) {
	r, err := c.call(ctx, "eth_syncing", nil)
	if err != nil {
		return 0, 0, false, err
	}
	if !r.IsObject() {
		return 0, 0, false, nil
	}
	if current, err = hexutil.DecodeUint64(r.Get("currentBlock").String()); err != nil {
		return 0, 0, false, errors.Wrap(err, "decode currentBlock")
	}
	if highest, err = hexutil.DecodeUint64(r.Get("highestBlock").String()); err != nil {
		return 0, 0, false, errors.Wrap(err, "decode highestBlock")
	}
	return current, highest, true, nil
}

// ImportRawKey stores an unencrypted hex private key in the node's keystore
// and returns the resulting account address.
func (c *Client) ImportRawKey(ctx context.Context, keyHex, password string) (string, error) {
	r, err := c.call(ctx, "personal_importRawKey", []interface{}{strings.TrimPrefix(keyHex, "0x"), password})
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// SendTransaction has the node sign value transfer from -> to with the
// account passphrase and broadcast it. Zero gas values let the node decide.
func (c *Client) SendTransaction(ctx context.Context, from, to string, value, gasPrice *big.Int, gas uint64, password string) (string, error) {
	if value == nil {
		value = new(big.Int)
	}
	tx := map[string]interface{}{
		"from":  from,
		"to":    to,
		"value": hexutil.EncodeBig(value),
	}
	if gasPrice != nil && gasPrice.Sign() > 0 {
		tx["gasPrice"] = hexutil.EncodeBig(gasPrice)
	}
	if gas > 0 {
		tx["gas"] = hexutil.EncodeUint64(gas)
	}
	r, err := c.call(ctx, "personal_sendTransaction", []interface{}{tx, password})
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// ClientVersion returns the node's client identifier. It doubles as a
// liveness probe.
func (c *Client) ClientVersion(ctx context.Context) (string, error) {
	r, err := c.call(ctx, "web3_clientVersion", nil)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// Ping reports whether the node answers JSON-RPC calls.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ClientVersion(ctx)
	return err
}
