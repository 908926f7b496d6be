/*
	Package jsonrpc2 implements bidirectional JSONRPC 2.0 over a single
	persistent connection. This implementation does not include batches or
	subscriptions.

	Codec is the transport and encoding, one envelope per message. Once a
	Codec is established, it does not care which side initiated the
	connection.

	Remote owns a Codec. Its reader loop (Serve) routes every inbound
	response to the call waiting on the same ID, so any number of calls can
	be in flight at once and responses can arrive in any order. Calls made
	with CallID choose their own ID; Call picks the next free one.

	Open and WithRemote dial a connection and tie its lifetime to the caller.
	When the connection goes away, every call still waiting is released with
	an error matching ErrConnectionClosed. Errors sent by the other side are
	returned as *RemoteError.

	Server is an RPC method registry. A Remote with a Server can also answer
	calls made by the other side; the handling context carries a Service
	(see CtxService) for calling back.
*/
package jsonrpc2
