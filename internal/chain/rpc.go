package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"motormint/contracts/registry"
	"motormint/internal/wallet"
	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
)

// RPCReader implements Reader over a JSON-RPC HTTP endpoint.
type RPCReader struct {
	endpoint string
	contract string // normalized registry contract address
	client   *http.Client
}

// RPCOption configures an RPCReader.
type RPCOption func(*RPCReader)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) RPCOption {
	return func(r *RPCReader) {
		if client != nil {
			r.client = client
		}
	}
}

// NewRPCReader constructs a reader bound to one registry contract.
func NewRPCReader(endpoint, contractAddress string, opts ...RPCOption) (*RPCReader, error) {
	contract, err := wallet.Normalize(contractAddress)
	if err != nil {
		return nil, fmt.Errorf("registry contract address: %w", err)
	}
	r := &RPCReader{
		endpoint: endpoint,
		contract: contract,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type receiptPayload struct {
	Status      string `json:"status"`
	BlockNumber string `json:"blockNumber"`
}

// GetReceipt fetches the transaction receipt. A null result means the
// transaction is not yet mined.
func (r *RPCReader) GetReceipt(ctx context.Context, txHash id.TxHash) (Receipt, error) {
	raw, err := r.call(ctx, "eth_getTransactionReceipt", txHash.String())
	if err != nil {
		return Receipt{}, err
	}
	if isNull(raw) {
		return Receipt{}, sentinel.ErrReceiptPending
	}
	var payload receiptPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Receipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	block, err := parseHexQuantity(payload.BlockNumber)
	if err != nil {
		return Receipt{}, fmt.Errorf("decode receipt block number: %w", err)
	}
	return Receipt{
		TxHash:      txHash,
		Succeeded:   payload.Status == "0x1",
		BlockNumber: block,
	}, nil
}

// OwnerOf calls ownerOf(tokenId) on the registry contract. A revert means the
// token was never minted.
func (r *RPCReader) OwnerOf(ctx context.Context, tokenID id.TokenID) (string, error) {
	ret, err := r.ethCall(ctx, registry.OwnerOfCallData(uint64(tokenID)))
	if err != nil {
		return "", err
	}
	addr, err := registry.DecodeAddress(ret)
	if err != nil {
		return "", fmt.Errorf("ownerOf return: %w", err)
	}
	return wallet.Normalize(addr)
}

// TotalSupply calls totalSupply() on the registry contract.
func (r *RPCReader) TotalSupply(ctx context.Context) (uint64, error) {
	ret, err := r.ethCall(ctx, registry.TotalSupplyCallData())
	if err != nil {
		return 0, err
	}
	supply, err := registry.DecodeUint64(ret)
	if err != nil {
		return 0, fmt.Errorf("totalSupply return: %w", err)
	}
	return supply, nil
}

func (r *RPCReader) ethCall(ctx context.Context, data []byte) ([]byte, error) {
	params := map[string]string{
		"to":   r.contract,
		"data": "0x" + hex.EncodeToString(data),
	}
	raw, err := r.call(ctx, "eth_call", params, "latest")
	if err != nil {
		return nil, err
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("decode eth_call result: %w", err)
	}
	ret, err := hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode eth_call result: %w", err)
	}
	return ret, nil
}

func (r *RPCReader) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode rpc request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", sentinel.ErrUnavailable, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: endpoint returned %d", sentinel.ErrUnavailable, method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %v", sentinel.ErrUnavailable, method, err)
	}
	if rpcResp.Error != nil {
		if isRevert(rpcResp.Error) {
			return nil, fmt.Errorf("%w: %s", sentinel.ErrTokenAbsent, rpcResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: %s: rpc error %d: %s", sentinel.ErrUnavailable, method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// isRevert detects contract reverts reported through the JSON-RPC error
// channel. Error code 3 is the standardized "execution reverted" code;
// some endpoints report reverts under -32000 with a message instead.
func isRevert(e *rpcError) bool {
	if e.Code == 3 {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "revert")
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func parseHexQuantity(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}
