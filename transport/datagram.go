package transport

import (
	"net"
)

// Datagram adapts a UDP socket to message.Device: UDP already delivers one
// datagram per Read, so no framing is needed here, unlike Stream.
type Datagram struct {
	conn *net.UDPConn
	peer *net.UDPAddr // nil until a peer is known (listener side)
}

// DialDatagram opens a connected UDP socket to raddr, for a client that
// knows its server's address up front.
func DialDatagram(raddr string) (*Datagram, error) {
	addr, err := net.ResolveUDPAddr("udp", raddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	return &Datagram{conn: conn, peer: addr}, nil
}

// ListenDatagram opens a UDP socket bound to laddr. The first packet
// received latches its source as the peer; subsequent Writes go only to
// that peer. This suits the single-client embedded deployments this
// package targets, not a fan-in multi-client listener.
func ListenDatagram(laddr string) (*Datagram, error) {
	addr, err := net.ResolveUDPAddr("udp", laddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &Datagram{conn: conn}, nil
}

// Read blocks for the next datagram. On the listener side, it latches the
// sender as the peer for subsequent Writes.
func (d *Datagram) Read(buf []byte) (int, error) {
	n, from, err := d.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, err
	}
	if d.peer == nil {
		d.peer = from
	}
	return n, nil
}

// Write sends buf as a single datagram to the known peer. On the dial
// side the peer is fixed at construction. On the listen side, Write
// before any Read has latched a peer has nowhere to send and returns
// net.ErrWriteToConnected.
func (d *Datagram) Write(buf []byte) (int, error) {
	if d.peer == nil {
		return 0, net.ErrWriteToConnected
	}
	var n int
	var err error
	if d.conn.RemoteAddr() != nil {
		// A dialed socket is already connected to peer; WriteToUDP on it
		// fails, so send with Write.
		n, err = d.conn.Write(buf)
	} else {
		n, err = d.conn.WriteToUDP(buf, d.peer)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the underlying socket.
func (d *Datagram) Close() error {
	return d.conn.Close()
}
