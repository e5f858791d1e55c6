package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"screen-cue-overlay/src/config"
	"screen-cue-overlay/src/detector"
	"screen-cue-overlay/src/eventloop"
	"screen-cue-overlay/src/hotkey"
	"screen-cue-overlay/src/logutil"
	"screen-cue-overlay/src/notification"
	"screen-cue-overlay/src/overlay"
	"screen-cue-overlay/src/runtimeinit"
	"screen-cue-overlay/src/screenshot"
	"screen-cue-overlay/src/singleinstance"
)

const appTitle = "Screen Cue Overlay"

type mainOptions struct {
	button  string
	logFile bool
}

type trackerLoop interface {
	Run(ctx context.Context) error
	OnButtonEvent(button hotkey.Button, pressed bool)
}

type inputListener interface {
	Subscribe(onButtonEvent func(button hotkey.Button, pressed bool)) error
	Unsubscribe()
}

type overlayWindow interface {
	Run() error
	Close()
}

func main() {
	// Capture coordinates must be physical pixels.
	enableDPIAwareness()

	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-cue-overlay"}
	}

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-cue-overlay",
		Short:         "Watch the screen for a color cue and show a 45 second countdown overlay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadOptions := config.LoadOptions{TriggerButtonOverride: opts.button}
			if cmd.Flags().Changed("log-file") {
				enabled := opts.logFile
				loadOptions.EnableFileLoggingOverride = &enabled
			}
			return runTracker(loadOptions)
		},
	}

	cmd.Flags().StringVar(&opts.button, "button", "", "Mouse button that restarts the countdown (left, right, middle, x1, x2)")
	cmd.Flags().BoolVar(&opts.logFile, "log-file", false, "Write logs to screen_cue_overlay.log instead of stderr")

	return cmd
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		switch {
		case arg == "-button":
			normalized[i] = "--button"
		case strings.HasPrefix(arg, "-button="):
			normalized[i] = "--button=" + arg[len("-button="):]
		case arg == "-log-file":
			normalized[i] = "--log-file"
		case strings.HasPrefix(arg, "-log-file="):
			normalized[i] = "--log-file=" + arg[len("-log-file="):]
		}
	}

	return normalized
}

func runTracker(loadOptions config.LoadOptions) error {
	cfg, button, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:       loadOptions,
		SetupLogging:      logutil.Setup,
		RequireDisplay:    true,
		ShowBlockingError: true,
	})
	if err != nil {
		return err
	}
	logMonitorConfiguration()

	guard, err := singleinstance.Acquire(context.Background())
	if err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			log.Printf("%s is already running, exiting", appTitle)
		}
		return err
	}
	defer guard.Close()

	det := detector.New(screenshot.Screen{}, nil)
	det.SetLogCounts(cfg.LogPixelCounts)

	window := overlay.NewWindow()
	loop := eventloop.New(eventloop.Options{
		Detector: det,
		Surface:  window,
		Button:   button,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("%s started; trigger button %s", appTitle, button)
	err = serve(ctx, loop, hotkey.NewListener(), window)

	var renderErr *overlay.RenderError
	switch {
	case errors.As(err, &renderErr):
		notification.ShowBlockingError(appTitle, fmt.Sprintf("The overlay could not be displayed:\n\n%v", err))
	case errors.Is(err, hotkey.ErrHookUnavailable):
		notification.ShowBlockingError(appTitle, fmt.Sprintf("The global mouse hook could not be installed:\n\n%v", err))
	}
	if err != nil {
		return err
	}
	log.Printf("%s stopped", appTitle)
	return nil
}

// serve subscribes the listener, runs the loop on its own goroutine and the
// window on the calling one. On the way out the loop is cancelled and joined
// before the listener is unsubscribed.
func serve(ctx context.Context, loop trackerLoop, listener inputListener, window overlayWindow) error {
	if err := listener.Subscribe(loop.OnButtonEvent); err != nil {
		return fmt.Errorf("failed to start input listener: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in tracker loop: %v", r)
				loopErr <- fmt.Errorf("tracker loop panic: %v", r)
			}
			window.Close()
		}()
		loopErr <- loop.Run(ctx)
	}()

	windowErr := window.Run()
	cancel()
	err := <-loopErr
	listener.Unsubscribe()

	if windowErr != nil {
		return windowErr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
