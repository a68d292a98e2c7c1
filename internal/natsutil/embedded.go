package natsutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// ErrServerNotReady is returned when an embedded server does not accept connections in time.
var ErrServerNotReady = errors.New("embedded NATS server not ready")

// EmbeddedOptions configures an in-process NATS server.
type EmbeddedOptions struct {
	// Host is the listen address. Default "127.0.0.1".
	Host string

	// Port is the client port. Zero picks a random free port.
	Port int

	// StoreDir is the JetStream storage directory. Empty uses a server-chosen temp dir.
	StoreDir string

	// ReadyTimeout bounds how long to wait for the server to accept connections.
	ReadyTimeout time.Duration

	// Quiet suppresses all server logging.
	Quiet bool
}

// StartEmbedded starts a single in-process NATS server with JetStream enabled, by
// default on a random loopback port.
//
// The caller owns the returned server and must call Shutdown on it.
//
// Example:
//
//	ns, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{Quiet: true})
//	if err != nil {
//	    return err
//	}
//	defer ns.Shutdown()
//	nc, err := nats.Connect(ns.ClientURL())
func StartEmbedded(opts EmbeddedOptions) (*server.Server, error) {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 5 * time.Second
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = -1
	}

	ns, err := server.NewServer(&server.Options{
		Host:      opts.Host,
		Port:      opts.Port,
		JetStream: true,
		StoreDir:  opts.StoreDir,
		NoLog:     opts.Quiet,
		NoSigs:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	if !opts.Quiet {
		ns.ConfigureLogger()
	}

	go ns.Start()

	if !ns.ReadyForConnections(opts.ReadyTimeout) {
		ns.Shutdown()
		return nil, ErrServerNotReady
	}

	return ns, nil
}
