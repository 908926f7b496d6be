package jsonrpc2

import (
	"sync/atomic"
)

// Requester builds outbound requests.
type Requester interface {
	NextID() int64
	Request(method string, params interface{}) (*Message, error)
}

var _ Requester = &Client{}

// Client hands out monotonically increasing request IDs, starting at 1.
type Client struct {
	id int64
}

func (c *Client) NextID() int64 {
	return atomic.AddInt64(&c.id, 1)
}

// Request returns a request message using the next ID.
func (c *Client) Request(method string, params interface{}) (*Message, error) {
	return NewRequest(c.NextID(), method, params)
}
