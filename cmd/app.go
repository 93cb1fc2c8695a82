package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamalpur-chamber/chamber/internal/account"
	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/gallery"
	"github.com/jamalpur-chamber/chamber/internal/kvstore"
	"github.com/jamalpur-chamber/chamber/internal/notices"
	"github.com/jamalpur-chamber/chamber/internal/pdf"
	"github.com/jamalpur-chamber/chamber/internal/session"
	"github.com/jamalpur-chamber/chamber/internal/socket"
)

// app holds the services a command works with.
type app struct {
	store    kvstore.Store
	api      *apiclient.Client
	session  *session.Store
	notices  *notices.Service
	gallery  *gallery.Service
	accounts *account.Service
}

// openApp opens the configured store and wires the services onto it.
func openApp() (*app, error) {
	dir, err := cfg.DataPath()
	if err != nil {
		return nil, err
	}
	store, err := kvstore.Open(cfg.Store, dir, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}

	api := apiclient.New(cfg.APIBaseURL(), cfg.HTTPTimeout)
	sess := session.New(store)
	return &app{
		store:    store,
		api:      api,
		session:  sess,
		notices:  notices.NewService(api, store, sess, notices.WithLogger(logger)),
		gallery:  gallery.NewService(api, sess, logger),
		accounts: account.NewService(api, cfg.VerifyTimeout, logger),
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}

// pdfHandler returns the PDF handler and a sink writing into the download
// directory.
func (a *app) pdfHandler() (*pdf.Handler, *pdf.SystemSink, error) {
	dir, err := cfg.DownloadDir()
	if err != nil {
		return nil, nil, err
	}
	return pdf.NewHandler(cfg.APIBaseURL(), a.api.HTTP, logger),
		pdf.NewSystemSink(dir, cfg.PrintCommand, a.api.HTTP), nil
}

// liveManager builds the live channel manager for the stored credentials.
func (a *app) liveManager(ctx context.Context) *socket.Manager {
	opts := socket.DefaultOptions(cfg.SocketURL)
	opts.Enabled = cfg.SocketEnabled()
	opts.ReconnectDelay = cfg.ReconnectDelay
	opts.ReconnectAttempts = cfg.ReconnectAttempts
	opts.Logger = logger
	m := socket.NewManager(opts)
	m.SetAdmin(a.session.IsAdmin(ctx))
	return m
}

// requireLogin returns an error when no token is stored.
func (a *app) requireLogin(ctx context.Context) error {
	tok, err := a.session.Token(ctx)
	if err != nil {
		return err
	}
	if tok == "" {
		return fmt.Errorf("not logged in (run 'chamber auth login'): %w", apiclient.ErrUnauthorized)
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
