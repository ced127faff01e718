package starknet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/pandodao/gasless-wallet/core"
)

type headerClient struct {
	header http.Header
	client *http.Client
}

func (c *headerClient) Do(req *http.Request) (*http.Response, error) {
	for k, v := range c.header {
		req.Header[k] = v
	}

	return c.client.Do(req)
}

type rpcClient struct {
	*jrpc2.Client
}

func dial(url string, header http.Header) *rpcClient {
	ch := jhttp.NewChannel(url, &jhttp.ChannelOptions{
		Client: &headerClient{
			header: header,
			client: &http.Client{Timeout: 30 * time.Second},
		},
	})

	return &rpcClient{Client: jrpc2.NewClient(ch, nil)}
}

// call invokes method and classifies failures: transport problems become
// core.ErrServiceUnavailable, rejections by the remote side become onReject.
func (c *rpcClient) call(ctx context.Context, method string, params, result any, onReject error) error {
	err := c.CallResult(ctx, method, params, result)
	if err == nil {
		return nil
	}

	var rpcErr *jrpc2.Error
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: %s: %s", onReject, method, rpcErr.Message)
	}

	return fmt.Errorf("%w: %s: %w", core.ErrServiceUnavailable, method, err)
}
