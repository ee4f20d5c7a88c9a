// Command params-dump validates a share request and prints the dialog
// envelope the workers would hand to the dialog host.
package main

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	common "github.com/example/share-dialog-service/internal/adapters/common"
	dialogadapter "github.com/example/share-dialog-service/internal/adapters/dialog"
	"github.com/example/share-dialog-service/internal/app"
	"github.com/example/share-dialog-service/internal/config"
	"github.com/example/share-dialog-service/internal/logger"
	"github.com/example/share-dialog-service/internal/models"
	"github.com/example/share-dialog-service/internal/providers/factory"
	"github.com/example/share-dialog-service/internal/providers/host"
	"github.com/example/share-dialog-service/internal/share"
	sharevalidator "github.com/example/share-dialog-service/internal/worker/validator/share"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const deliverTimeout = 5 * time.Second

type options struct {
	surface  string
	pretty   bool
	deliver  bool
	scenario string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "params-dump [request.json|-]",
		Short: "Print the dialog parameters built for a share request",
		Long: `params-dump reads a share request as consumed from a request topic,
validates it and prints the dialog envelope carrying the built parameters.
Local and inline assets are resolved against the configured asset store.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeFn, err := openInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := config.LoadTooling()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.App.Env, cfg.App.LogLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, *log, opts, in, cmd.OutOrStdout())
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.Flags().StringVarP(&opts.surface, "surface", "s", models.SurfaceShare, "dialog surface: share or messenger")
	cmd.Flags().BoolVarP(&opts.pretty, "pretty", "p", false, "indent the printed envelope")
	cmd.Flags().BoolVar(&opts.deliver, "deliver", false, "send the request through the dialog adapter to a mock host and print the host response")
	cmd.Flags().StringVar(&opts.scenario, "scenario", string(host.ScenarioSuccess), "mock host scenario used with --deliver: success, transient, permanent or timeout")
	return cmd
}

func openInput(stdin io.Reader, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("open request: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts *options, in io.Reader, out io.Writer) error {
	payload, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	msg, err := sharevalidator.New(cfg.Validation, logger.Component(log, "share-validator")).
		ParseAndValidate(ctx, opts.surface, payload)
	if err != nil {
		return err
	}
	call, ok := msg.Request.(*share.Call)
	if !ok {
		return errors.New("validated request carries no share call")
	}

	store, err := factory.AssetStore(ctx, cfg.Assets, logger.Component(log, "asset-store"))
	if err != nil {
		return err
	}
	builder, err := app.NewParamsBuilder(cfg, store, log)
	if err != nil {
		return err
	}

	if opts.deliver {
		return deliver(ctx, log, opts, msg, builder, out)
	}

	built, err := builder.Build(ctx, call.ID, call.Content, call.FailOnDataError)
	if err != nil {
		return err
	}
	if built == nil {
		log.Warn().Str("kind", msg.Kind).Msg("content kind has no dialog mapping; the workers would skip it")
	}

	encoded, err := json.Marshal(models.DialogEnvelope{
		MessageID: msg.MessageID,
		CallID:    msg.CallIDString(),
		Surface:   msg.Surface,
		Kind:      msg.Kind,
		TenantID:  msg.TenantID,
		TraceID:   msg.TraceID,
		Params:    built,
		BuiltAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return write(out, encoded, opts.pretty)
}

// deliver runs msg through the dialog adapter against a mock host. The host
// response is printed even when delivery fails.
func deliver(ctx context.Context, log zerolog.Logger, opts *options, msg *common.ValidatedMessage, builder dialogadapter.ParamsBuilder, out io.Writer) error {
	provider := host.NewMockProvider(logger.Component(log, "mock-host"),
		host.WithDefaultScenario(host.Scenario(opts.scenario)))
	adapter, err := dialogadapter.NewAdapter(builder, provider, logger.Component(log, "dialog-adapter"),
		dialogadapter.WithDeliveryTimeout(deliverTimeout))
	if err != nil {
		return err
	}

	resp, sendErr := adapter.Send(ctx, msg)
	if resp != nil {
		encoded, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encode host response: %w", err)
		}
		if err := write(out, encoded, opts.pretty); err != nil {
			return err
		}
	}
	if sendErr != nil {
		kind := "transient"
		if common.IsPermanent(sendErr) {
			kind = "permanent"
		}
		return fmt.Errorf("%s delivery failure: %w", kind, sendErr)
	}
	return nil
}

func write(out io.Writer, encoded []byte, pretty bool) error {
	if pretty {
		var buf bytes.Buffer
		if err := stdjson.Indent(&buf, encoded, "", "  "); err != nil {
			return fmt.Errorf("indent output: %w", err)
		}
		encoded = buf.Bytes()
	}
	_, err := fmt.Fprintf(out, "%s\n", encoded)
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
