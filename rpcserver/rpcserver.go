// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package rpcserver implements the ControlRPC endpoint: a Unix domain
// socket accepting one request per connection, dispatched to the
// handlers registry.
package rpcserver

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oos-tools/emuctl/ctlerrors"
	"github.com/oos-tools/emuctl/handlers"
	"github.com/oos-tools/emuctl/logger"
	"github.com/oos-tools/emuctl/wireproto"
)

// maxRequestLine bounds how much of a connection's input is read before
// the request is rejected as malformed. A connection that never sends a
// newline within this many bytes is closed without reading further.
const maxRequestLine = 1 << 20

const acceptPollInterval = 100 * time.Millisecond

// Server is the ControlRPC endpoint. One Server owns one listening socket
// for the lifetime of the process that created it.
type Server struct {
	registry *handlers.Registry
	deps     *handlers.Deps

	mu       sync.Mutex
	listener *net.UnixListener
	path     string
	wg       sync.WaitGroup
	quit     chan struct{}
}

// SocketPath returns the endpoint name this module uses: mesen2-<pid>.sock
// in the OS temp directory.
func SocketPath(pid int) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("mesen2-%d.sock", pid))
}

// New creates a Server that will dispatch requests to registry against deps.
func New(registry *handlers.Registry, deps *handlers.Deps) *Server {
	return &Server{registry: registry, deps: deps}
}

// Start removes any stale endpoint at path and begins accepting
// connections in a background goroutine.
func (s *Server) Start(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return ctlerrors.Newf(ctlerrors.KindIO, "io: removing stale endpoint: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %w", err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return ctlerrors.Newf(ctlerrors.KindIO, "io: %w", err)
	}
	tightenPermissions(path)

	s.mu.Lock()
	s.listener = ln
	s.path = path
	s.quit = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop()

	logger.Logf("rpcserver", "listening on %s", path)
	return nil
}

// Stop closes the listener, waits for the accept loop to exit, and removes
// the endpoint file.
func (s *Server) Stop() {
	s.mu.Lock()
	ln := s.listener
	quit := s.quit
	path := s.path
	s.mu.Unlock()

	if ln == nil {
		return
	}
	close(quit)
	ln.Close()
	s.wg.Wait()
	os.Remove(path)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.quit:
			return
		default:
		}

		s.listener.SetDeadline(time.Now().Add(acceptPollInterval))
		conn, err := s.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-s.quit:
				return
			default:
				logger.Logf("rpcserver", "accept: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		s.serve(conn)
	}
}

// serve handles exactly one request per connection: read one line, parse,
// dispatch, respond, close.
func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	line, err := readLine(conn, maxRequestLine)
	if err != nil {
		resp := wireproto.Response{Error: err.Error()}
		conn.Write(resp.Marshal())
		return
	}

	resp := s.dispatch(line)
	conn.Write(resp.Marshal())
}

func readLine(r io.Reader, limit int) (string, error) {
	br := bufio.NewReaderSize(r, 4096)
	var b []byte
	for {
		chunk, err := br.ReadSlice('\n')
		b = append(b, chunk...)
		if len(b) > limit {
			return "", ctlerrors.Newf(ctlerrors.KindBadRequest, "bad-request: request line too long")
		}
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			break
		}
		return "", ctlerrors.Newf(ctlerrors.KindIO, "io: %w", err)
	}
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return string(b), nil
}

func (s *Server) dispatch(line string) wireproto.Response {
	req, err := wireproto.ParseRequest(line)
	if err != nil {
		return wireproto.Response{Success: false, Error: err.Error()}
	}

	fn, ok := s.registry.Lookup(req.Type)
	if !ok {
		return wireproto.Response{Success: false, Error: fmt.Sprintf("Unknown command: %s", req.Type)}
	}

	data, err := s.callHandler(fn, req.Params)
	if err != nil {
		return wireproto.Response{Success: false, Error: err.Error()}
	}
	return wireproto.Response{Success: true, Data: data}
}

// callHandler invokes fn, converting a panic into a KindHandlerFault error
// so one misbehaving handler never takes the server down.
func (s *Server) callHandler(fn handlers.HandlerFunc, params map[string]string) (data string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Logf("rpcserver", "handler panic: %v", r)
			err = ctlerrors.Newf(ctlerrors.KindHandlerFault, "handler-fault: %v", r)
		}
	}()
	return fn(s.deps, params)
}
