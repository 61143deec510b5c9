package main

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"recipehub/internal/events"
)

func readLine(t *testing.T, br *bufio.Reader) string {
	t.Helper()
	ch := make(chan string, 1)
	go func() {
		line, _ := br.ReadString('\n')
		ch <- line
	}()
	select {
	case line := <-ch:
		return line
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for feed line")
		return ""
	}
}

func TestWatchTCPFormatsEvents(t *testing.T) {
	hub := events.NewHub(zap.NewNop())
	srv := events.NewServer("127.0.0.1:0", hub)
	go func() { _ = srv.Run() }()
	t.Cleanup(func() { _ = srv.Close() })

	var addr net.Addr
	for i := 0; i < 100 && addr == nil; i++ {
		addr = srv.ListenAddr()
		time.Sleep(10 * time.Millisecond)
	}
	if addr == nil {
		t.Fatal("server never started listening")
	}

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pr.Close() })
	go func() { _ = watchTCP(addr.String(), pw) }()
	br := bufio.NewReader(pr)

	if welcome := readLine(t, br); !strings.Contains(welcome, `"welcome"`) {
		t.Fatalf("first line = %q, want welcome", welcome)
	}
	for i := 0; i < 100 && hub.Stats().TCPClients == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(events.Event{Type: events.RecipeCreated, Slug: "soup", Actor: "alice"})
	line := readLine(t, br)
	for _, want := range []string{"recipe.created", "soup", "by alice"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}
