package main

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/app"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/store"
	"github.com/iov-one/accrual/x/bridge"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/tendermint/tendermint/libs/log"
)

// node hosts all configured domains in one process. Relocations between
// them travel over an in-process loopback transport.
type node struct {
	conf     *Config
	logger   log.Logger
	registry metrics.Registry
	loopback *bridge.Loopback
	domains  map[string]*app.Domain
	closers  []func() error
}

// openNode opens the store of every configured domain. Relocations are
// applied at the time returned by clock. Relocations left unacknowledged by
// an earlier run are queued again.
func openNode(ctx context.Context, home string, clock func() accrual.UnixTime) (*node, error) {
	conf, err := LoadConfig(home)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := newLogger(home, conf)
	if err != nil {
		return nil, err
	}
	n := &node{
		conf:     conf,
		logger:   logger,
		registry: metrics.NewRegistry(),
		loopback: bridge.NewLoopback(),
		domains:  make(map[string]*app.Domain),
		closers:  []func() error{closeLog},
	}
	for _, name := range conf.Domains {
		db, err := store.OpenLevelDB(dataPath(home, name))
		if err != nil {
			n.Close()
			return nil, err
		}
		n.closers = append(n.closers, db.Close)

		d := app.NewDomain(name, db, n.loopback, nil).
			WithLogger(logger).
			WithMetrics(app.NewMetrics(metrics.NewPrefixedChildRegistry(n.registry, name+".")))
		n.loopback.Register(name, n.acknowledged(d.Handler(clock)))
		n.domains[name] = d
	}
	for _, name := range conf.Domains {
		if _, err := n.domains[name].Resend(ctx); err != nil {
			n.Close()
			return nil, errors.Wrapf(err, "domain %q", name)
		}
	}
	return n, nil
}

// acknowledged wraps a domain handler so that every applied envelope is
// dropped from the outbox of its source. A duplicate was applied before,
// so it is acknowledged as well.
func (n *node) acknowledged(h bridge.Handler) bridge.Handler {
	return func(ctx context.Context, raw []byte) error {
		err := h(ctx, raw)
		if err != nil && !errors.ErrDuplicate.Is(err) {
			return err
		}
		var env bridge.Envelope
		if uerr := env.Unmarshal(raw); uerr != nil {
			return err
		}
		src, ok := n.domains[env.Source]
		if !ok {
			return err
		}
		if aerr := src.Acknowledge(env.ID); aerr != nil {
			// Left in the outbox, the envelope is sent again on next open.
			n.logger.Error("cannot acknowledge relocation", "id", env.ID, "source", env.Source, "err", aerr)
		}
		return err
	}
}

// Domain returns the hosted domain of given name.
func (n *node) Domain(name string) (*app.Domain, error) {
	d, ok := n.domains[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnsupportedDomain, "domain %q is not hosted", name)
	}
	return d, nil
}

// Deliver flushes the loopback transport until no message is pending.
// Each round delivers what the previous one sent. It stops at the first
// round that fails, leaving the failed messages queued.
func (n *node) Deliver(ctx context.Context) error {
	for n.loopback.Pending() > 0 {
		delivered, err := n.loopback.Flush(ctx)
		if err != nil {
			return errors.Wrap(err, "deliver")
		}
		n.logger.Debug("delivered relocations", "count", delivered)
	}
	return nil
}

// Delivered returns true if the relocation with given ID left the outbox
// of its source domain.
func (n *node) Delivered(source string, id uuid.UUID) (bool, error) {
	d, err := n.Domain(source)
	if err != nil {
		return false, err
	}
	pending, err := d.Pending()
	if err != nil {
		return false, err
	}
	for _, e := range pending {
		if e.ID == id {
			return false, nil
		}
	}
	return true, nil
}

// WriteMetrics dumps the operation metrics if enabled.
func (n *node) WriteMetrics(w io.Writer) {
	if n.conf.Metrics {
		metrics.WriteOnce(n.registry, w)
	}
}

// Close releases all stores and the log file.
func (n *node) Close() error {
	var errs error
	for i := len(n.closers) - 1; i >= 0; i-- {
		errs = errors.Append(errs, n.closers[i]())
	}
	return errs
}
