package starknet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/holiman/uint256"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/service/keys"
)

func serve(t *testing.T, methods handler.Map, wrap func(http.Handler) http.Handler) string {
	t.Helper()

	bridge := jhttp.NewBridge(methods, nil)
	t.Cleanup(func() { bridge.Close() })

	var h http.Handler = bridge
	if wrap != nil {
		h = wrap(h)
	}

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNodeCall(t *testing.T) {
	var got callParams
	url := serve(t, handler.Map{
		"starknet_call": handler.New(func(_ context.Context, p callParams) ([]string, error) {
			got = p
			return []string{"0x2a", "0x0"}, nil
		}),
		"starknet_blockNumber": handler.New(func(context.Context) (uint64, error) {
			return 1234, nil
		}),
	}, nil)

	n := NewNode(NodeConfig{URL: url})
	ctx := context.Background()

	result, err := n.Call(ctx, core.Call{ContractAddress: "0x1", Entrypoint: "balanceOf", Calldata: []string{"0x2"}})
	if err != nil {
		t.Fatal(err)
	}

	if len(result) != 2 || result[0] != "0x2a" {
		t.Errorf("Call result = %v", result)
	}

	if got.Request.EntryPointSelector != keys.Selector("balanceOf") || got.BlockID != "latest" {
		t.Errorf("request = %+v", got)
	}

	head, err := n.BlockNumber(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if head != 1234 {
		t.Errorf("BlockNumber = %d, want 1234", head)
	}
}

func TestNodeGetBlockWithReceipts(t *testing.T) {
	url := serve(t, handler.Map{
		"starknet_getBlockWithReceipts": handler.New(func(_ context.Context, p blockParams) (*blockWithReceipts, error) {
			b := &blockWithReceipts{BlockNumber: p.BlockID.BlockNumber, BlockHash: "0xb", Timestamp: 1700000000}
			b.Transactions = append(b.Transactions, struct {
				Receipt *receipt `json:"receipt"`
			}{Receipt: &receipt{
				TransactionHash: "0xt",
				ExecutionStatus: core.ExecutionStatusSucceeded,
				Events:          []*event{{FromAddress: "0xtoken", Data: []string{"0xa", "0xb", "0x5", "0x0"}}},
			}})
			return b, nil
		}),
		"starknet_getTransactionReceipt": handler.New(func(_ context.Context, p receiptParams) (*receipt, error) {
			return nil, &jrpc2.Error{Code: 29, Message: "Transaction hash not found"}
		}),
	}, nil)

	n := NewNode(NodeConfig{URL: url})
	ctx := context.Background()

	block, err := n.GetBlockWithReceipts(ctx, 77)
	if err != nil {
		t.Fatal(err)
	}

	if block.Number != 77 || len(block.Receipts) != 1 {
		t.Fatalf("block = %+v", block)
	}

	r := block.Receipts[0]
	if r.BlockNumber != 77 || r.Events[0].Data[2] != "0x5" {
		t.Errorf("receipt = %+v", r)
	}

	if _, err := n.GetTransactionReceipt(ctx, "0xmissing"); !errors.Is(err, core.ErrServiceUnavailable) {
		t.Errorf("GetTransactionReceipt err = %v, want ErrServiceUnavailable", err)
	}
}

func TestNodeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	n := NewNode(NodeConfig{URL: url})
	if _, err := n.BlockNumber(context.Background()); !errors.Is(err, core.ErrServiceUnavailable) {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestPaymaster(t *testing.T) {
	var (
		apiKeys  []string
		built    paymasterParams
		executed paymasterParams
	)

	typedData := []byte(`{"domain":{"name":"Account.execute_from_outside"}}`)

	url := serve(t, handler.Map{
		"paymaster_isAvailable": handler.New(func(context.Context) (bool, error) {
			return true, nil
		}),
		"paymaster_getSupportedTokens": handler.New(func(context.Context) ([]supportedToken, error) {
			return []supportedToken{{TokenAddress: "0x53c9", Decimals: 6}}, nil
		}),
		"paymaster_buildTransaction": handler.New(func(_ context.Context, p paymasterParams) (*builtTransaction, error) {
			built = p
			return &builtTransaction{
				Type:       p.Transaction.Type,
				TypedData:  typedData,
				Parameters: p.Parameters,
				Fee: feeEstimate{
					EstimatedFeeInGasToken:    "0x64",
					SuggestedMaxFeeInGasToken: "0xc8",
				},
			}, nil
		}),
		"paymaster_executeTransaction": handler.New(func(_ context.Context, p paymasterParams) (*executeResult, error) {
			executed = p
			return &executeResult{TransactionHash: "0xfeed", TrackingID: "0x1"}, nil
		}),
	}, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKeys = append(apiKeys, r.Header.Get(apiKeyHeader))
			next.ServeHTTP(w, r)
		})
	})

	p := NewPaymaster(PaymasterConfig{URL: url, APIKey: "secret"}, testLogger())
	ctx := context.Background()

	ok, err := p.IsAvailable(ctx)
	if err != nil || !ok {
		t.Fatalf("IsAvailable = %v, %v", ok, err)
	}

	tokens, err := p.GetSupportedTokens(ctx)
	if err != nil || len(tokens) != 1 || tokens[0].Address != "0x53c9" {
		t.Fatalf("GetSupportedTokens = %v, %v", tokens, err)
	}

	tx := &core.PaymasterTransaction{
		Account: "0xabc",
		Calls:   []core.Call{{ContractAddress: "0x1", Entrypoint: "transfer", Calldata: []string{"0x2", "0x3", "0x0"}}},
		Fee:     core.FeeDetails{Mode: core.FeeModeDefault, GasToken: "0x53c9"},
	}

	estimate, err := p.EstimateFee(ctx, tx)
	if err != nil {
		t.Fatal(err)
	}

	if estimate.SuggestedMaxFee.Uint64() != 200 || estimate.EstimatedFee.Uint64() != 100 {
		t.Errorf("estimate = %+v", estimate)
	}

	if built.Transaction.Type != txTypeInvoke || built.Parameters.FeeMode.GasToken != "0x53c9" {
		t.Errorf("build params = %+v", built)
	}

	if built.Transaction.Invoke.Calls[0].Selector != keys.Selector("transfer") {
		t.Errorf("selector = %s", built.Transaction.Invoke.Calls[0].Selector)
	}

	s := &recordingSigner{address: "0xabc"}
	handle, err := p.Submit(ctx, tx, s, estimate.SuggestedMaxFee)
	if err != nil {
		t.Fatal(err)
	}

	if handle.Hash != "0xfeed" || handle.TrackingID != "0x1" {
		t.Errorf("handle = %+v", handle)
	}

	digest := keys.Keccak250(typedData).Bytes32()
	if !bytes.Equal(s.signed, digest[:]) {
		t.Error("signer did not sign the typed data digest")
	}

	if executed.Transaction.Invoke.UserAddress != "0xabc" || len(executed.Transaction.Invoke.Signature) != 2 {
		t.Errorf("execute params = %+v", executed.Transaction.Invoke)
	}

	for _, k := range apiKeys {
		if k != "secret" {
			t.Errorf("api key header = %q, want secret", k)
		}
	}

	if _, err := p.Submit(ctx, tx, s, uint256.NewInt(199)); !errors.Is(err, core.ErrSubmissionFailed) {
		t.Errorf("Submit over max fee: err = %v, want ErrSubmissionFailed", err)
	}
}

func TestPaymasterSponsoredDeploy(t *testing.T) {
	var built paymasterParams
	url := serve(t, handler.Map{
		"paymaster_buildTransaction": handler.New(func(_ context.Context, p paymasterParams) (*builtTransaction, error) {
			built = p
			return &builtTransaction{Type: p.Transaction.Type, TypedData: []byte(`{}`), Parameters: p.Parameters}, nil
		}),
		"paymaster_executeTransaction": handler.New(func(_ context.Context, p paymasterParams) (*executeResult, error) {
			return nil, &jrpc2.Error{Code: 163, Message: "invalid signature"}
		}),
	}, nil)

	p := NewPaymaster(PaymasterConfig{URL: url}, testLogger())

	tx := &core.PaymasterTransaction{
		Account:    "0xabc",
		Calls:      []core.Call{{ContractAddress: "0x1", Entrypoint: "get_counter", Calldata: []string{"0xabc"}}},
		Deployment: &core.DeploymentData{Address: "0xabc", ClassHash: "0x5", Salt: "0x6", Calldata: []string{"0x0", "0x6", "0x1"}, Version: 1},
		Fee:        core.FeeDetails{Mode: core.FeeModeSponsored, GasToken: "0x53c9"},
	}

	_, err := p.Submit(context.Background(), tx, &recordingSigner{address: "0xabc"}, nil)
	if !errors.Is(err, core.ErrSubmissionFailed) {
		t.Errorf("err = %v, want ErrSubmissionFailed", err)
	}

	if built.Transaction.Type != txTypeDeployAndInvoke || built.Transaction.Deployment.Salt != "0x6" {
		t.Errorf("build params = %+v", built.Transaction)
	}

	if built.Parameters.FeeMode.Mode != core.FeeModeSponsored || built.Parameters.FeeMode.GasToken != "" {
		t.Errorf("fee mode = %+v", built.Parameters.FeeMode)
	}
}

type recordingSigner struct {
	address string
	signed  []byte
}

func (s *recordingSigner) Address() string { return s.address }

func (s *recordingSigner) Sign(hash []byte) ([]string, error) {
	s.signed = append([]byte(nil), hash...)
	return []string{"0x1", "0x2"}, nil
}

func (s *recordingSigner) Zero() {}
