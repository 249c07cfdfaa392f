package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/code-program/pkg/localnet"
	"github.com/code-payments/code-program/pkg/metrics"
	"github.com/code-payments/code-program/pkg/netutil"
	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/program/counter"
	"github.com/code-payments/code-program/pkg/rate"
	"github.com/code-payments/code-program/pkg/solana"
)

func encodeCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "print the hex encoding of an instruction",
		ArgsUsage: "noop|initialize|increment|set_authority|move|mirror",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "amount", Usage: "increment and move amount"},
			&cli.Uint64Flag{Name: "start", Usage: "initial count"},
			&cli.UintFlag{Name: "bump", Usage: "counter address bump"},
			&cli.StringFlag{Name: "new-authority", Usage: "base58 key for set_authority"},
		},
		Action: func(c *cli.Context) error {
			ix, err := instructionFromFlags(c)
			if err != nil {
				return err
			}

			data, err := counter.Encode(ix)
			if err != nil {
				return err
			}

			fmt.Fprintln(r.out, hex.EncodeToString(data))
			return nil
		},
	}
}

func instructionFromFlags(c *cli.Context) (counter.Instruction, error) {
	switch c.Args().First() {
	case counter.TagNoop.String():
		return counter.Noop{}, nil
	case counter.TagInitialize.String():
		bump := c.Uint("bump")
		if bump > 255 {
			return nil, errors.Errorf("bump %d out of range", bump)
		}
		return counter.Initialize{Bump: uint8(bump), Start: c.Uint64("start")}, nil
	case counter.TagIncrement.String():
		return counter.Increment{Amount: c.Uint64("amount")}, nil
	case counter.TagSetAuthority.String():
		key, err := parseKey(c.String("new-authority"))
		if err != nil {
			return nil, errors.Wrap(err, "invalid new authority")
		}
		var ix counter.SetAuthority
		copy(ix.NewAuthority[:], key)
		return ix, nil
	case counter.TagMove.String():
		return counter.Move{Amount: c.Uint64("amount")}, nil
	case counter.TagMirror.String():
		return counter.Mirror{}, nil
	}
	return nil, errors.Errorf("unknown instruction %q", c.Args().First())
}

func decodeCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "decode a hex encoded instruction",
		ArgsUsage: "<hex>",
		Action: func(c *cli.Context) error {
			data, err := hex.DecodeString(strings.TrimPrefix(c.Args().First(), "0x"))
			if err != nil {
				return errors.Wrap(err, "invalid hex")
			}

			ix, err := counter.Decode(data)
			if err != nil {
				return err
			}

			fmt.Fprintf(r.out, "%s %+v\n", ix.Tag(), ix)
			for i, req := range counter.Requirements(ix) {
				fmt.Fprintf(r.out, "  %d. %s%s\n", i, req.Name, describeRequirement(req))
			}
			return nil
		},
	}
}

func describeRequirement(req program.AccountRequirement) string {
	var flags []string
	if req.Signer {
		flags = append(flags, "signer")
	}
	if req.Writable {
		flags = append(flags, "writable")
	}
	if req.Owned {
		flags = append(flags, "owned")
	}
	if req.Unique {
		flags = append(flags, "unique")
	}
	if len(flags) == 0 {
		return ""
	}
	return " [" + strings.Join(flags, ", ") + "]"
}

func addressCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "derive the counter address of an authority",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "program", Required: true},
			&cli.StringFlag{Name: "authority", Required: true},
		},
		Action: func(c *cli.Context) error {
			programID, err := parseKey(c.String("program"))
			if err != nil {
				return errors.Wrap(err, "invalid program")
			}
			authority, err := parseKey(c.String("authority"))
			if err != nil {
				return errors.Wrap(err, "invalid authority")
			}

			address, bump, err := counter.GetCounterAddress(&counter.GetCounterAddressArgs{
				Program:   programID,
				Authority: authority,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(r.out, "%s %d\n", base58.Encode(address), bump)
			return nil
		},
	}
}

func errorCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "error",
		Usage:     "describe a program error code",
		ArgsUsage: "<code>",
		Action: func(c *cli.Context) error {
			code, err := strconv.ParseUint(c.Args().First(), 0, 32)
			if err != nil {
				return errors.Wrap(err, "invalid code")
			}

			e := program.Error(code)
			fmt.Fprintf(r.out, "0x%x %s %s\n", code, counter.ErrorName(e), e.Key())
			return nil
		},
	}
}

func simulateCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "initialize and increment a counter on a local bank",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "program", Usage: "base58 program id, random when unset"},
			&cli.Uint64Flag{Name: "start"},
			&cli.Int64SliceFlag{Name: "increment", Usage: "increment amount, repeatable"},
			&cli.StringFlag{
				Name:    "rpc-endpoint",
				Usage:   "load unknown accounts from this cluster, by url or name (local, devnet, testnet, mainnet-beta)",
				EnvVars: []string{"SOLANA_RPC_ENDPOINT"},
			},
			&cli.Float64Flag{
				Name:    "rpc-rate-limit",
				Usage:   "requests per second per RPC method, unlimited when zero",
				EnvVars: []string{"SOLANA_RPC_RATE_LIMIT"},
			},
		},
		Action: func(c *cli.Context) error {
			ctx, end := metrics.StartTransaction(r.context(c), "counter simulate")
			defer end()

			var opts []localnet.Option
			if value := c.String("rpc-endpoint"); len(value) > 0 {
				if env, ok := solana.EnvironmentFromName(value); ok {
					value = string(env)
				}

				endpoint, err := netutil.NormalizeRPCEndpoint(value, false)
				if err != nil {
					return errors.Wrap(err, "invalid rpc endpoint")
				}

				var limiter rate.Limiter = rate.NoLimiter{}
				if perSecond := c.Float64("rpc-rate-limit"); perSecond > 0 {
					limiter = rate.NewKeyedLimiter(perSecond, int(perSecond))
				}
				client := solana.NewWithLimiter(endpoint, nil, limiter)
				opts = append(opts, localnet.WithRemoteAccounts(client, solana.CommitmentConfirmed))
			}

			bank, err := localnet.NewBank(localnet.WithEnvConfigs(), opts...)
			if err != nil {
				return err
			}

			programID, err := programIDFromFlag(c.String("program"))
			if err != nil {
				return err
			}

			var amounts []uint64
			for _, amount := range c.Int64Slice("increment") {
				if amount < 0 {
					return errors.Errorf("negative increment %d", amount)
				}
				amounts = append(amounts, uint64(amount))
			}

			s := &scenario{bank: bank, programID: programID}
			result, address, err := s.run(ctx, c.Uint64("start"), amounts)
			if result != nil {
				for _, line := range result.Logs {
					fmt.Fprintln(r.out, line)
				}
			}
			if err != nil {
				r.log.WithError(err).WithField("method", "simulate").Debug("scenario failed")
				return err
			}

			var state counter.CounterState
			account, err := bank.GetAccount(ctx, address)
			if err != nil {
				return err
			}
			if err := state.Unmarshal(account.Data); err != nil {
				return err
			}

			fmt.Fprintf(r.out, "transaction %s consumed %d compute units\n", result.ID, result.UnitsConsumed)
			fmt.Fprintf(r.out, "counter %s count %d\n", base58.Encode(address), state.Count)
			return nil
		},
	}
}

func programIDFromFlag(value string) (ed25519.PublicKey, error) {
	if len(value) == 0 {
		programID, _, err := ed25519.GenerateKey(nil)
		return programID, err
	}

	programID, err := parseKey(value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid program")
	}
	return programID, nil
}

func parseKey(value string) (ed25519.PublicKey, error) {
	key, err := base58.Decode(value)
	if err != nil {
		return nil, err
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid key length %d", len(key))
	}
	return key, nil
}
