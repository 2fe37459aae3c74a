package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/holiman/uint256"
	"github.com/iov-one/accrual"
	"github.com/iov-one/accrual/app"
	"github.com/iov-one/accrual/errors"
	"github.com/iov-one/accrual/store"
	"github.com/iov-one/accrual/x/bridge"
	"github.com/iov-one/accrual/x/rate"
	"github.com/iov-one/accrual/x/vault"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	conf := DefaultConfig()
	var (
		admin, initialRate string
		dedup              bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the node configuration and initialize every domain from its genesis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := cmd.Flags().GetString(flagHome)
			if err != nil {
				return err
			}
			adminAddr, err := accrual.ParseAddress(admin)
			if err != nil {
				return errors.Wrap(err, "admin")
			}
			if err := SaveConfig(home, conf); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Join(home, "config"), 0700); err != nil {
				return errors.Wrapf(errors.ErrInvalidInput, "create config directory: %s", err)
			}
			for _, name := range conf.Domains {
				gen, err := buildGenesis(name, peersOf(name, conf.Domains), adminAddr, initialRate, dedup)
				if err != nil {
					return err
				}
				if err := app.SaveGenesis(genesisPath(home, name), gen); err != nil {
					return err
				}
				if err := initDomain(home, gen); err != nil {
					return errors.Wrapf(err, "domain %q", name)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "initialized domain %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&conf.Domains, "domains", conf.Domains, "identifiers of the hosted domains")
	cmd.Flags().StringVar(&admin, "admin", "", "address allowed to lower rates and fund reserves")
	cmd.Flags().StringVar(&initialRate, "rate", "50000000000", "initial per second rate, scaled by 1e18")
	cmd.Flags().BoolVar(&dedup, "dedup", true, "reject redelivered relocations")
	cmd.Flags().StringVar(&conf.LogLevel, "log-level", conf.LogLevel, "debug, info, error or none")
	cmd.Flags().StringVar(&conf.LogFile, "log-file", conf.LogFile, "log file relative to home, stderr if empty")
	cmd.Flags().BoolVar(&conf.Metrics, "metrics", conf.Metrics, "print operation metrics after each command")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func peersOf(name string, all []string) []string {
	var peers []string
	for _, d := range all {
		if d != name {
			peers = append(peers, d)
		}
	}
	return peers
}

func buildGenesis(domain string, peers []string, admin accrual.Address, initialRate string, dedup bool) (*app.Genesis, error) {
	conf := map[string]interface{}{
		"rate": rate.Configuration{
			InitialRate: initialRate,
			Admin:       admin,
		},
		"vault": vault.Configuration{
			Rejected: []accrual.Address{},
		},
		"bridge": bridge.Configuration{
			Domain: domain,
			Peers:  peers,
			Dedup:  dedup,
		},
	}
	raw, err := json.Marshal(conf)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "marshal configuration: %s", err)
	}
	return &app.Genesis{
		DomainID: domain,
		AppState: accrual.Options{"conf": raw},
	}, nil
}

func initDomain(home string, gen *app.Genesis) error {
	db, err := store.OpenLevelDB(dataPath(home, gen.DomainID))
	if err != nil {
		return err
	}
	defer db.Close()
	return app.NewDomain(gen.DomainID, db, bridge.NewLoopback(), nil).InitGenesis(gen)
}

// withNode opens the node for the duration of fn.
func withNode(cmd *cobra.Command, fn func(ctx context.Context, n *node, now accrual.UnixTime) error) error {
	home, err := cmd.Flags().GetString(flagHome)
	if err != nil {
		return err
	}
	at, err := cmd.Flags().GetString(flagAt)
	if err != nil {
		return err
	}
	now := accrual.Now()
	if at != "" {
		if now, err = accrual.ParseUnixTime(at); err != nil {
			return err
		}
	}

	ctx := context.Background()
	n, err := openNode(ctx, home, func() accrual.UnixTime { return now })
	if err != nil {
		return err
	}
	defer n.Close()

	// Relocations that could not be delivered before are retried first. A
	// failure must not block commands unrelated to them.
	if err := n.Deliver(ctx); err != nil {
		n.logger.Info("relocations still pending", "err", err)
	}
	if err := fn(ctx, n, now); err != nil {
		return err
	}
	n.WriteMetrics(cmd.ErrOrStderr())
	return nil
}

func depositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <domain> <holder> <amount>",
		Short: "Deposit base asset and credit the holder at the current rate",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node, now accrual.UnixTime) error {
				d, err := n.Domain(args[0])
				if err != nil {
					return err
				}
				holder, amount, err := parseHolderAmount(args[1], args[2])
				if err != nil {
					return err
				}
				if err := d.Deposit(ctx, holder, amount, now); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deposited %s\n", accrual.FormatAmount(amount))
				return nil
			})
		},
	}
}

func withdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <domain> <holder> <amount|max>",
		Short: "Debit the holder and release the base asset",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node, now accrual.UnixTime) error {
				d, err := n.Domain(args[0])
				if err != nil {
					return err
				}
				holder, amount, err := parseHolderAmount(args[1], args[2])
				if err != nil {
					return err
				}
				withdrawn, err := d.Withdraw(ctx, holder, amount, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "withdrawn %s\n", accrual.FormatAmount(withdrawn))
				return nil
			})
		},
	}
}

func transferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <domain> <from> <to> <amount|max>",
		Short: "Move value between two holders of the same domain",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node, now accrual.UnixTime) error {
				d, err := n.Domain(args[0])
				if err != nil {
					return err
				}
				from, amount, err := parseHolderAmount(args[1], args[3])
				if err != nil {
					return err
				}
				to, err := accrual.ParseAddress(args[2])
				if err != nil {
					return errors.Wrap(err, "receiver")
				}
				moved, err := d.Transfer(from, to, amount, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transferred %s\n", accrual.FormatAmount(moved))
				return nil
			})
		},
	}
}

func relocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relocate <source> <destination> <holder> <recipient> <amount|max>",
		Short: "Move value together with its rate to another domain",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node, now accrual.UnixTime) error {
				d, err := n.Domain(args[0])
				if err != nil {
					return err
				}
				holder, amount, err := parseHolderAmount(args[2], args[4])
				if err != nil {
					return err
				}
				recipient, err := accrual.ParseAddress(args[3])
				if err != nil {
					return errors.Wrap(err, "recipient")
				}
				env, _, err := d.Relocate(ctx, holder, args[1], recipient, amount, now)
				if err != nil {
					return err
				}
				// The debit is committed. An undelivered envelope stays in
				// the outbox and is retried by every following command.
				derr := n.Deliver(ctx)
				ok, err := n.Delivered(args[0], env.ID)
				if err != nil {
					return err
				}
				if !ok {
					if derr == nil {
						derr = errors.Wrap(errors.ErrState, "not acknowledged")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "relocation %s queued for %s: %s\n", env.ID, env.Destination, derr)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "relocation %s delivered to %s\n", env.ID, env.Destination)
				return nil
			})
		},
	}
}

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending <domain>",
		Short: "List relocations sent from a domain that were not delivered yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node, now accrual.UnixTime) error {
				d, err := n.Domain(args[0])
				if err != nil {
					return err
				}
				pending, err := d.Pending()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(pending) == 0 {
					fmt.Fprintln(out, "no pending relocations")
					return nil
				}
				for _, e := range pending {
					p, err := bridge.UnmarshalPayload(e.Payload)
					if err != nil {
						return errors.Wrapf(err, "relocation %s", e.ID)
					}
					fmt.Fprintf(out, "%s %s %s %s\n", e.ID, e.Destination, e.Recipient, accrual.FormatAmount(p.Amount))
				}
				return nil
			})
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <domain> <holder>",
		Short: "Print the interest inclusive balance and the rate of a holder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node, now accrual.UnixTime) error {
				d, err := n.Domain(args[0])
				if err != nil {
					return err
				}
				holder, err := accrual.ParseAddress(args[1])
				if err != nil {
					return errors.Wrap(err, "holder")
				}
				bal, err := d.BalanceOf(holder, now)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "balance %s\n", accrual.FormatAmount(bal))
				switch acct, err := d.Account(holder); {
				case err == nil:
					fmt.Fprintf(out, "rate %s\n", acct.Rate.ToBig())
				case errors.ErrNotFound.Is(err):
				default:
					return err
				}
				return nil
			})
		},
	}
}

func setRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-rate <domain> <caller> <rate>",
		Short: "Lower the rate offered to new deposits, scaled by 1e18",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node, now accrual.UnixTime) error {
				d, err := n.Domain(args[0])
				if err != nil {
					return err
				}
				caller, err := accrual.ParseAddress(args[1])
				if err != nil {
					return errors.Wrap(err, "caller")
				}
				r, err := accrual.ParseRaw(args[2])
				if err != nil {
					return errors.Wrap(err, "rate")
				}
				if err := d.SetRate(caller, r); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rate %s\n", r.ToBig())
				return nil
			})
		},
	}
}

func fundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fund <domain> <caller> <amount>",
		Short: "Top up custodial reserves so that interest can be paid",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node, now accrual.UnixTime) error {
				d, err := n.Domain(args[0])
				if err != nil {
					return err
				}
				caller, amount, err := parseHolderAmount(args[1], args[2])
				if err != nil {
					return err
				}
				if err := d.FundReserves(ctx, caller, amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "funded %s\n", accrual.FormatAmount(amount))
				return nil
			})
		},
	}
}

func supplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supply <domain>",
		Short: "Print the aggregates of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node, now accrual.UnixTime) error {
				d, err := n.Domain(args[0])
				if err != nil {
					return err
				}
				s, err := d.Supply(now)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "total     %s\n", accrual.FormatAmount(s.Total))
				fmt.Fprintf(out, "accrued   %s\n", accrual.FormatAmount(s.Accrued))
				fmt.Fprintf(out, "liability %s\n", accrual.FormatAmount(s.Liability))
				fmt.Fprintf(out, "reserves  %s\n", accrual.FormatAmount(s.Reserves))
				fmt.Fprintf(out, "sent      %s\n", accrual.FormatAmount(s.Bridge.Sent))
				fmt.Fprintf(out, "received  %s\n", accrual.FormatAmount(s.Bridge.Received))
				return nil
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), accrual.Version())
		},
	}
}

func parseHolderAmount(rawHolder, rawAmount string) (accrual.Address, *uint256.Int, error) {
	holder, err := accrual.ParseAddress(rawHolder)
	if err != nil {
		return nil, nil, errors.Wrap(err, "holder")
	}
	amount, err := accrual.ParseAmount(rawAmount)
	if err != nil {
		return nil, nil, errors.Wrap(err, "amount")
	}
	return holder, amount, nil
}
