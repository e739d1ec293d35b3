package redis

import (
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := Config{URL: "redis://:secret@localhost:6380/2", ReadTimeout: 3, WriteTimeout: 4, DialTimeout: 5}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 || opts.Password != "secret" {
		t.Fatalf("unexpected options: addr=%s db=%d", opts.Addr, opts.DB)
	}
	if opts.ReadTimeout != 3*time.Second || opts.WriteTimeout != 4*time.Second || opts.DialTimeout != 5*time.Second {
		t.Fatalf("unexpected timeouts: %v %v %v", opts.ReadTimeout, opts.WriteTimeout, opts.DialTimeout)
	}
}

func TestOptionsInvalidURL(t *testing.T) {
	t.Parallel()

	cfg := Config{URL: "http://localhost"}
	if _, err := cfg.Options(); err == nil {
		t.Fatal("expected error for non-redis scheme")
	}
}
