// Package network holds listener helpers for the API server.
package network

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// tlsHandshake is the record type byte every TLS connection opens with.
const tlsHandshake = 0x16

// NewHTTPSRedirectListener wraps a raw TCP listener that is about to be
// wrapped by tls.NewListener. Connections that open with a plain HTTP
// request get a 307 to the https:// URL and are closed; TLS connections
// pass through untouched.
func NewHTTPSRedirectListener(l net.Listener) net.Listener {
	return &redirectListener{Listener: l}
}

type redirectListener struct {
	net.Listener
}

func (l *redirectListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &sniffConn{Conn: conn, reader: bufio.NewReader(conn)}, nil
}

// sniffConn inspects the first byte on the first Read. Bytes peeked from
// the socket are replayed through reader.
type sniffConn struct {
	net.Conn
	reader *bufio.Reader
	once   sync.Once
	err    error
}

func (c *sniffConn) Read(b []byte) (int, error) {
	c.once.Do(c.sniff)
	if c.err != nil {
		return 0, c.err
	}
	return c.reader.Read(b)
}

func (c *sniffConn) sniff() {
	first, err := c.reader.Peek(1)
	if err != nil || first[0] == tlsHandshake {
		return
	}
	req, err := http.ReadRequest(c.reader)
	if err != nil {
		c.err = err
		_ = c.Conn.Close()
		return
	}
	resp := http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", fmt.Sprintf("https://%s%s", req.Host, req.RequestURI))
	resp.Header.Set("Connection", "close")
	_ = resp.Write(c.Conn)
	_ = c.Conn.Close()
	c.err = net.ErrClosed
}
