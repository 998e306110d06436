package juliusprotocol

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockEngine is a TCP server speaking the module-mode wire format. Each
// received command line is passed to handler; the returned records are
// written back, each followed by the terminator line.
type mockEngine struct {
	listener net.Listener
	handler  func(cmd string) []string
	encode   func(string) string

	mu       sync.Mutex
	conns    []net.Conn
	commands []string
	accepted chan net.Conn

	wg sync.WaitGroup
}

func startMockEngine(t *testing.T, handler func(cmd string) []string) *mockEngine {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	if handler == nil {
		handler = func(string) []string { return nil }
	}

	me := &mockEngine{
		listener: listener,
		handler:  handler,
		encode:   func(s string) string { return s },
		accepted: make(chan net.Conn, 4),
	}
	me.wg.Add(1)
	go me.acceptLoop()

	t.Cleanup(me.stop)
	return me
}

// options returns client options pointing at the mock engine.
func (me *mockEngine) options() Options {
	addr := me.listener.Addr().(*net.TCPAddr)
	return Options{Host: "127.0.0.1", Port: addr.Port, Encoding: DefaultEncoding}
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
		me.accepted <- conn

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
			me.writeRecord(conn, record)
		}
	}
}

// waitConn returns the next accepted connection.
func (me *mockEngine) waitConn(t *testing.T) net.Conn {
	t.Helper()
	select {
	case conn := <-me.accepted:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
		return nil
	}
}

func (me *mockEngine) writeRecord(w io.Writer, record string) {
	var b strings.Builder
	for _, line := range strings.Split(record, "\n") {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(RecordTerminator + "\n")
	io.WriteString(w, me.encode(b.String()))
}

// received returns the command lines seen so far.
func (me *mockEngine) received() []string {
	me.mu.Lock()
	defer me.mu.Unlock()
	return append([]string(nil), me.commands...)
}

func (me *mockEngine) stop() {
	me.listener.Close()
	me.mu.Lock()
	for _, conn := range me.conns {
		conn.Close()
	}
	me.conns = nil
	me.mu.Unlock()
	me.wg.Wait()
}

// engineInfoRecord renders an ENGINEINFO reply.
func engineInfoRecord(version, conf string) string {
	return `<ENGINEINFO TYPE="Julius" VERSION=` + strconv.Quote(version) + ` CONF=` + strconv.Quote(conf) + `/>`
}
