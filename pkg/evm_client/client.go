package evm_client

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client 同一条链的 eth/geth 客户端组合，geth 客户端提供带状态覆盖的 eth_call
type Client struct {
	Eth  *ethclient.Client
	Geth *gethclient.Client
	RPC  *rpc.Client
}

// Init evm client
func Init(rawurl string) *Client {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rpcClient, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		panic(fmt.Sprintf("Init evm client error: %v", err))
	}

	return &Client{
		Eth:  ethclient.NewClient(rpcClient),
		Geth: gethclient.New(rpcClient),
		RPC:  rpcClient,
	}
}

func (c *Client) Close() {
	if c.RPC != nil {
		c.RPC.Close()
	}
}
