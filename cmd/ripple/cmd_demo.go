package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ripple "github.com/Tap30/ripple-ui-go"
	"github.com/Tap30/ripple-ui-go/adapters"
	"github.com/Tap30/ripple-ui-go/internal/config"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Play a nested-scope UI session against a bridge",
	Long: `Builds a ripple client for the configured endpoint and plays a checkout
session through it: a view scope, a payment section with a date picker and a
pay button, a confirmation modal and a disabled promo section whose clicks
are never sent.

With --interactive a menu lets you emit single events, including one the
bridge rejects so the retry queue can be watched draining.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().String("endpoint", "", "Collector base URL (overrides config)")
	demoCmd.Flags().Bool("debug", false, "Log SDK internals")
	demoCmd.Flags().Bool("echo", false, "Also log every event locally")
	demoCmd.Flags().BoolP("interactive", "i", false, "Pick events from a menu")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cc := cfg.Client
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		cc.Endpoint = v
	}
	if v, _ := cmd.Flags().GetBool("debug"); v {
		cc.Debug = true
	}
	echo, _ := cmd.Flags().GetBool("echo")
	interactive, _ := cmd.Flags().GetBool("interactive")

	client, err := newDemoClient(cc, logger, echo)
	if err != nil {
		return err
	}
	if err := client.Init(); err != nil {
		return err
	}
	defer client.Dispose()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = client.WithScope(ctx)

	if interactive {
		return runMenu(ctx, client, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	logger.Info("Playing checkout session", zap.String("endpoint", cc.Endpoint))
	playCheckout(ctx, 300*time.Millisecond)
	return waitForDelivery(ctx, client.Dispatcher(), 3*cc.RetryIntervalDuration())
}

func newDemoClient(cc config.ClientConfig, logger *zap.Logger, echo bool) (*ripple.Client, error) {
	level := adapters.LogLevelWarn
	if cc.Debug {
		level = adapters.LogLevelDebug
	}
	sdkLogger := adapters.NewZapLoggerAdapter(logger, level)

	var extra []ripple.DispatchAdapter
	if echo {
		extra = append(extra, adapters.NewConsoleAdapter(adapters.NewZapLoggerAdapter(logger, adapters.LogLevelInfo)))
	}

	return ripple.NewClient(ripple.ClientConfig{
		Endpoint:      cc.Endpoint,
		APIKey:        cc.APIKey,
		Debug:         cc.Debug,
		RetryEnabled:  cc.RetryEnabled,
		MaxRetries:    cc.MaxRetries,
		RetryInterval: cc.RetryIntervalDuration(),
		Context: ripple.Context{
			SessionID:  uuid.NewString(),
			Channel:    "cli",
			AppVersion: version,
		},
		HTTPAdapter:   adapters.NewNetHTTPAdapter(cc.RequestTimeoutDuration()),
		LoggerAdapter: sdkLogger,
		Adapters:      extra,
	})
}

// playCheckout drives a checkout screen through the scope in ctx, sleeping
// pause between interactions.
func playCheckout(ctx context.Context, pause time.Duration) {
	step := func() {
		select {
		case <-ctx.Done():
		case <-time.After(pause):
		}
	}

	ctx, checkout := ripple.EnterContext(ctx, ripple.ScopeConfig{Context: ripple.Context{View: "checkout"}})
	defer checkout.Exit()

	promo := ripple.TextInput{ID: "promo-code", Name: "promo"}
	promo.Focus(ctx)
	step()
	promo.Change(ctx, "SPRING25")
	promo.Blur(ctx)
	step()

	func() {
		ctx, payment := ripple.EnterContext(ctx, ripple.ScopeConfig{Context: ripple.Context{Section: "payment"}})
		defer payment.Exit()

		picker := ripple.DatePicker{ID: "delivery-date"}
		picker.Open(ctx)
		step()
		picker.Select(ctx, time.Now().AddDate(0, 0, 2))
		picker.Close(ctx)
		step()
		ripple.Button{ID: "pay", Label: "Pay now"}.Click(ctx)
		step()
	}()

	func() {
		ctx, confirm := ripple.EnterContext(ctx, ripple.ScopeConfig{Context: ripple.Context{
			Section: "confirmation",
			Custom:  map[string]any{"step": 3},
		}})
		defer confirm.Exit()

		modal := ripple.Modal{ID: "order-confirm"}
		modal.Open(ctx)
		step()
		modal.Close(ctx, "confirm")
	}()

	func() {
		ctx, ads := ripple.EnterContext(ctx, ripple.ScopeConfig{
			Context:  ripple.Context{Section: "ads"},
			Disabled: true,
		})
		defer ads.Exit()

		// never sent
		ripple.Button{ID: "promo-banner", Label: "Upgrade"}.Click(ctx)
	}()
}

// waitForDelivery gives the retry worker up to timeout to empty the queue.
func waitForDelivery(ctx context.Context, d *ripple.Dispatcher, timeout time.Duration) error {
	if d.Pending() == 0 {
		return nil
	}
	logger.Info("Waiting for queued events", zap.Int("pending", d.Pending()))

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for d.Pending() > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			logger.Warn("Giving up on queued events", zap.Int("pending", d.Pending()))
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func runMenu(ctx context.Context, client *ripple.Client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	ctx, screen := ripple.EnterContext(ctx, ripple.ScopeConfig{Context: ripple.Context{View: "playground"}})
	defer screen.Exit()

	section := ""
	sectionCtx := ctx
	var sectionScope *ripple.Scope
	enterSection := func(name string) {
		if sectionScope != nil {
			sectionScope.Exit()
		}
		section = name
		sectionCtx, sectionScope = ripple.EnterContext(ctx, ripple.ScopeConfig{Context: ripple.Context{Section: name}})
	}

	read := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		showMenu(out, section, client.Dispatcher())
		choice, ok := read("Choose an option: ")
		if !ok {
			return scanner.Err()
		}

		switch choice {
		case "1":
			ripple.Button{ID: "primary", Label: "Continue"}.Click(sectionCtx)
			fmt.Fprintln(out, "Tracked: button click")
		case "2":
			input := ripple.TextInput{ID: "search", Name: "query"}
			value, ok := read("Text: ")
			if !ok {
				return scanner.Err()
			}
			input.Focus(sectionCtx)
			input.Change(sectionCtx, value)
			input.Blur(sectionCtx)
			fmt.Fprintln(out, "Tracked: focus, change, blur")
		case "3":
			picker := ripple.DatePicker{ID: "date"}
			picker.Open(sectionCtx)
			picker.Select(sectionCtx, time.Now())
			picker.Close(sectionCtx)
			fmt.Fprintln(out, "Tracked: open, select, close")
		case "4":
			modal := ripple.Modal{ID: "dialog"}
			modal.Open(sectionCtx)
			modal.Close(sectionCtx, "backdrop")
			fmt.Fprintln(out, "Tracked: modal open, close")
		case "5":
			name, ok := read("Section name: ")
			if !ok {
				return scanner.Err()
			}
			enterSection(name)
			fmt.Fprintf(out, "Entered section %q\n", name)
		case "6":
			ripple.MustFromContext(sectionCtx).Track(sectionCtx, ripple.PartialEvent{
				EventType:     ripple.EventClick,
				ComponentType: ripple.ComponentButton,
				ComponentID:   "error-trigger",
				Metadata:      map[string]any{"trigger_error": true},
			})
			fmt.Fprintf(out, "Tracked an event the bridge rejects, %d pending\n", client.Dispatcher().Pending())
		case "7":
			client.Flush(ctx)
			fmt.Fprintf(out, "Flushed, %d pending\n", client.Dispatcher().Pending())
		case "8", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(out, "Invalid option. Please try again.")
		}
		fmt.Fprintln(out)
	}
}

func showMenu(out io.Writer, section string, d *ripple.Dispatcher) {
	where := "playground"
	if section != "" {
		where += "/" + section
	}
	status := "offline"
	if d.Online() {
		status = "online"
	}

	fmt.Fprintln(out, "----------------------------------")
	fmt.Fprintf(out, "Scope: %s   collector: %s   queued: %d\n", where, status, d.Pending())
	fmt.Fprintln(out, "1. Click a button")
	fmt.Fprintln(out, "2. Type into a text input")
	fmt.Fprintln(out, "3. Pick a date")
	fmt.Fprintln(out, "4. Open and dismiss a modal")
	fmt.Fprintln(out, "5. Enter a section")
	fmt.Fprintln(out, "6. Test retry logic (error event)")
	fmt.Fprintln(out, "7. Flush retry queue")
	fmt.Fprintln(out, "8. Exit")
	fmt.Fprintln(out, "----------------------------------")
}
