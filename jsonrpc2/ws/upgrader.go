package ws

import (
	"net/http"

	"github.com/vipnode/taskrpc/jsonrpc2"
)

// Upgrader takes an HTTP request, upgrades it to a websocket server and
// returns a codec interface. This allows switching between different websocket
// implementations.
type Upgrader interface {
	Upgrade(*http.Request, http.ResponseWriter, http.Header) (jsonrpc2.Codec, error)
}

// Handler returns an http.HandlerFunc that upgrades every request and serves
// it as a jsonrpc2 Remote answering with srv, until the connection drops.
func Handler(upgrader Upgrader, srv jsonrpc2.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codec, err := upgrader.Upgrade(r, w, nil)
		if err != nil {
			logger.Warningf("websocket upgrade error from %s: %s", r.RemoteAddr, err)
			return
		}
		remote := &jsonrpc2.Remote{
			Codec:  codec,
			Server: srv,
			Addr:   r.RemoteAddr,
		}
		if err := remote.Serve(); err != nil {
			logger.Debugf("Remote %s disconnected: %s", r.RemoteAddr, err)
		}
		remote.Close()
	}
}
