package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
)

const (
	rpcContract = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	rpcOwner    = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
	rpcTxHash   = "0xab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12"
)

// rpcFixture serves scripted JSON-RPC responses keyed by method.
func rpcFixture(t *testing.T, responses map[string]string) *RPCReader {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		body, ok := responses[req.Method]
		require.True(t, ok, "unexpected rpc method %s", req.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	reader, err := NewRPCReader(srv.URL, rpcContract, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return reader
}

func TestNewRPCReaderRejectsBadContract(t *testing.T) {
	_, err := NewRPCReader("http://localhost:8545", "not-an-address")
	require.Error(t, err)
}

func TestGetReceipt(t *testing.T) {
	ctx := context.Background()

	t.Run("null result means not yet mined", func(t *testing.T) {
		reader := rpcFixture(t, map[string]string{
			"eth_getTransactionReceipt": `{"jsonrpc":"2.0","id":1,"result":null}`,
		})
		_, err := reader.GetReceipt(ctx, id.TxHash(rpcTxHash))
		require.ErrorIs(t, err, sentinel.ErrReceiptPending)
	})

	t.Run("mined successful receipt", func(t *testing.T) {
		reader := rpcFixture(t, map[string]string{
			"eth_getTransactionReceipt": `{"jsonrpc":"2.0","id":1,"result":{"status":"0x1","blockNumber":"0x4d2"}}`,
		})
		receipt, err := reader.GetReceipt(ctx, id.TxHash(rpcTxHash))
		require.NoError(t, err)
		assert.True(t, receipt.Succeeded)
		assert.Equal(t, uint64(1234), receipt.BlockNumber)
	})

	t.Run("reverted receipt", func(t *testing.T) {
		reader := rpcFixture(t, map[string]string{
			"eth_getTransactionReceipt": `{"jsonrpc":"2.0","id":1,"result":{"status":"0x0","blockNumber":"0x4d2"}}`,
		})
		receipt, err := reader.GetReceipt(ctx, id.TxHash(rpcTxHash))
		require.NoError(t, err)
		assert.False(t, receipt.Succeeded)
	})

	t.Run("unreachable endpoint is unavailable", func(t *testing.T) {
		reader, err := NewRPCReader("http://127.0.0.1:1", rpcContract)
		require.NoError(t, err)
		_, err = reader.GetReceipt(ctx, id.TxHash(rpcTxHash))
		require.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}

func TestOwnerOf(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes and normalizes the owner word", func(t *testing.T) {
		reader := rpcFixture(t, map[string]string{
			"eth_call": `{"jsonrpc":"2.0","id":1,"result":"0x000000000000000000000000fb6916095ca1df60bb79ce92ce3ea74c37c5d359"}`,
		})
		owner, err := reader.OwnerOf(ctx, id.TokenID(7))
		require.NoError(t, err)
		assert.Equal(t, rpcOwner, owner)
	})

	t.Run("revert means the token does not exist", func(t *testing.T) {
		reader := rpcFixture(t, map[string]string{
			"eth_call": `{"jsonrpc":"2.0","id":1,"error":{"code":3,"message":"execution reverted: ERC721: invalid token ID"}}`,
		})
		_, err := reader.OwnerOf(ctx, id.TokenID(7))
		require.ErrorIs(t, err, sentinel.ErrTokenAbsent)
	})

	t.Run("other rpc errors are unavailable", func(t *testing.T) {
		reader := rpcFixture(t, map[string]string{
			"eth_call": `{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"rate limited"}}`,
		})
		_, err := reader.OwnerOf(ctx, id.TokenID(7))
		require.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}

func TestTotalSupply(t *testing.T) {
	reader := rpcFixture(t, map[string]string{
		"eth_call": `{"jsonrpc":"2.0","id":1,"result":"0x00000000000000000000000000000000000000000000000000000000000000ff"}`,
	})
	supply, err := reader.TotalSupply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(255), supply)
}
