// Package quic provides the QUIC transport abstraction used by transfork.
//
// The interfaces here cover exactly what a transfork connection needs from
// its transport: accepting and opening bidirectional and unidirectional
// streams, cancelling either direction of a stream with an error code, and
// closing the whole connection. Both a native QUIC connection and a
// WebTransport session satisfy Connection, so the protocol engine does not
// care which one it runs over.
//
// Error types are aliases of the quic-go types. Adapters for other
// transports translate their errors into StreamError and ApplicationError so
// that callers can inspect error codes with errors.As regardless of the
// transport in use.
//
// # Implementations
//
//   - quicgo subpackage: wraps github.com/quic-go/quic-go
//   - webtransport/webtransportgo: wraps github.com/quic-go/webtransport-go
//
// # Basic Usage
//
//	listener, err := quicgo.ListenAddrEarly("localhost:4443", tlsConfig, quicConfig)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer listener.Close()
//
//	for {
//	    conn, err := listener.Accept(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    go handleConnection(conn)
//	}
package quic
