// Package transfork implements the MoQ transfork protocol over QUIC and
// WebTransport.
//
// A [Client] dials a [Server] and both sides end up with a [Connection].
// Each Connection can publish tracks to its peer and subscribe to the peer's
// tracks at the same time.
//
// A [Track] is a sequence of [Group]s, and a group is an ordered list of
// frames. Publishers write groups into a track and every subscriber reads
// them through its own [TrackReader]. Readers skip groups they fell behind
// on and always resume at the latest group.
package transfork
