// Command client connects to the order session server and prints every
// message it receives until the server ends the session.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/iliamunaev/order-session-server/internal/obs"
	"github.com/iliamunaev/order-session-server/internal/transport/tcp"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	timeout := flag.Duration("dial-timeout", 5*time.Second, "dial timeout")
	flag.Parse()

	log := obs.InitLogger(os.Stderr, os.Getenv("LOG_LEVEL"), "text")
	if err := run(*addr, *timeout, os.Stdout); err != nil {
		log.Error("client_failed", "error", err)
		os.Exit(1)
	}
}

func run(addr string, timeout time.Duration, out io.Writer) error {
	c, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer c.Close()

	slog.Info("connected", "addr", c.RemoteAddr().String())
	r := tcp.NewReader(c)
	n := 0
	for {
		msg, err := r.ReadMessage()
		if errors.Is(err, io.EOF) {
			slog.Info("session_closed", "messages", n)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		n++
		if _, err := fmt.Fprintln(out, msg); err != nil {
			return err
		}
	}
}
