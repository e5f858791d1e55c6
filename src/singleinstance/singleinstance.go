// Package singleinstance keeps a second tracker from starting in the same
// user session. The running instance holds a loopback TCP port and answers
// PING with PONG.
package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	PortStartEnvVar = "SINGLEINSTANCE_PORT_START"
	PortEndEnvVar   = "SINGLEINSTANCE_PORT_END"

	defaultPortStart = 49560
	defaultPortEnd   = 49570
	minPort          = 1024
	maxPort          = 65535

	residentHost       = "127.0.0.1"
	pingRequest        = "PING\n"
	pongResponse       = "PONG\n"
	defaultPingTimeout = 300 * time.Millisecond
	answerTimeout      = 3 * time.Second
)

// ErrAlreadyRunning means another tracker owns the instance port.
var ErrAlreadyRunning = errors.New("screen cue overlay is already running")

// Guard is held for the lifetime of the owning process.
type Guard struct {
	lis  net.Listener
	port int
	once sync.Once
	done chan struct{}
}

// Acquire claims the start port of the configured range. A responding
// instance yields ErrAlreadyRunning; any other bind failure is returned
// wrapped.
func Acquire(ctx context.Context) (*Guard, error) {
	port, _ := portRange()
	addr := instanceAddr(port)

	if answersPing(addr, pingTimeout(ctx)) {
		return nil, ErrAlreadyRunning
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("singleinstance: bind %s: %w", addr, err)
	}
	g := &Guard{lis: lis, port: port, done: make(chan struct{})}
	log.Printf("singleinstance: holding %s", addr)
	go g.serve()
	return g, nil
}

// Running reports whether a tracker answers on the start port.
func Running(ctx context.Context) bool {
	port, _ := portRange()
	return answersPing(instanceAddr(port), pingTimeout(ctx))
}

// Port returns the held port.
func (g *Guard) Port() int { return g.port }

// Close releases the port. Safe to call more than once.
func (g *Guard) Close() error {
	var err error
	g.once.Do(func() {
		err = g.lis.Close()
		<-g.done
	})
	return err
}

func (g *Guard) serve() {
	defer close(g.done)
	for {
		c, err := g.lis.Accept()
		if err != nil {
			return
		}
		go answer(c)
	}
}

func answer(c net.Conn) {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(answerTimeout))
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil || line != pingRequest {
		return
	}
	_, _ = c.Write([]byte(pongResponse))
}

// answersPing reports whether addr answers PING with PONG within timeout.
func answersPing(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(pingRequest)); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}

func pingTimeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < defaultPingTimeout {
			return d
		}
	}
	return defaultPingTimeout
}

func instanceAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

// portRange reads the inclusive port range from the environment, clamped to
// [minPort, maxPort] and ordered low to high.
func portRange() (start, end int) {
	start = envPort(PortStartEnvVar, defaultPortStart)
	end = envPort(PortEndEnvVar, defaultPortEnd)
	start, end = max(start, minPort), min(end, maxPort)
	if end < start {
		start, end = end, start
	}
	return start, end
}

func envPort(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}
