// =============================================================================
// mockengine_test.go - Mock Julius Engine for Testing
// =============================================================================
//
// GO CONCEPT: Test Helpers (Shared Test Infrastructure)
// -----------------------------------------------------
// Test files (*_test.go) are only compiled during testing, and every test
// file of a package shares one test binary. This file provides a mock
// engine that listens on a local TCP port and speaks the module protocol,
// so the REPL can be tested without a real Julius installation.
//
// Compare with Python: pytest puts shared fixtures in `conftest.py`.
//
// =============================================================================

package main

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julius-go/julius/juliusprotocol"
)

// mockEngine is a lightweight stand-in for julius -module.
//
// For every command line it receives, handler returns the records to send
// back. Each record is written followed by the "." terminator line.
type mockEngine struct {
	listener net.Listener
	handler  func(cmd string) []string

	mu       sync.Mutex
	conns    []net.Conn
	commands []string

	wg sync.WaitGroup
}

// startMockEngine starts a mock engine on a free loopback port. It is
// stopped automatically when the test finishes.
func startMockEngine(t *testing.T, handler func(cmd string) []string) *mockEngine {
	t.Helper()

	// Port 0 asks the kernel for any free port, so parallel test runs
	// never collide.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create mock engine listener: %v", err)
	}

	if handler == nil {
		handler = defaultEngineHandler
	}

	me := &mockEngine{listener: listener, handler: handler}
	me.wg.Add(1)
	go me.acceptLoop()

	t.Cleanup(me.stop)
	return me
}

// port returns the TCP port the mock engine listens on.
func (me *mockEngine) port() int {
	return me.listener.Addr().(*net.TCPAddr).Port
}

func (me *mockEngine) acceptLoop() {
	defer me.wg.Done()
	for {
		conn, err := me.listener.Accept()
		if err != nil {
			return
		}
		me.mu.Lock()
		me.conns = append(me.conns, conn)
		me.mu.Unlock()

		me.wg.Add(1)
		go me.handleConnection(conn)
	}
}

func (me *mockEngine) handleConnection(conn net.Conn) {
	defer me.wg.Done()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := scanner.Text()
		me.mu.Lock()
		me.commands = append(me.commands, cmd)
		me.mu.Unlock()

		for _, record := range me.handler(cmd) {
			writeRecord(conn, record)
		}
	}
}

// writeRecord sends one record followed by the terminator line.
func writeRecord(w io.Writer, record string) {
	io.WriteString(w, record+"\n"+juliusprotocol.RecordTerminator+"\n")
}

// received returns the command lines seen so far.
func (me *mockEngine) received() []string {
	me.mu.Lock()
	defer me.mu.Unlock()
	return append([]string(nil), me.commands...)
}

// waitForCommands polls until n commands arrived or the deadline passes.
func (me *mockEngine) waitForCommands(n int) []string {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := me.received(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	return me.received()
}

// dropConnections closes every client connection, as an engine exit would.
func (me *mockEngine) dropConnections() {
	me.mu.Lock()
	defer me.mu.Unlock()
	for _, conn := range me.conns {
		conn.Close()
	}
	me.conns = nil
}

func (me *mockEngine) stop() {
	me.listener.Close()
	me.dropConnections()
	me.wg.Wait()
}

// defaultEngineHandler answers the three query commands the way Julius 4.6
// does and ignores everything else.
func defaultEngineHandler(cmd string) []string {
	switch strings.TrimSpace(cmd) {
	case "VERSION":
		return []string{`<ENGINEINFO TYPE="Julius" VERSION="4.6" CONF="main.jconf"/>`}
	case "STATUS":
		return []string{`<SYSINFO PROCESS="ACTIVE"/>`}
	case "GRAMINFO":
		return []string{"<GRAMINFO>\n #0: [active] 3 words\n</GRAMINFO>"}
	}
	return nil
}
