// Package webtransport abstracts WebTransport servers and dialers for transfork.
//
// A WebTransport session is exposed as a quic.Connection, so browsers and
// native QUIC peers run through the same protocol engine. The concrete
// implementation lives in the webtransportgo subpackage.
package webtransport
