package runtimeinit

import (
	"fmt"
	"log"

	"screen-cue-overlay/src/config"
	"screen-cue-overlay/src/hotkey"
	"screen-cue-overlay/src/notification"
	"screen-cue-overlay/src/screenshot"
)

type Options struct {
	LoadOptions    config.LoadOptions
	SetupLogging   func(bool)
	RequireDisplay bool
	// ShowBlockingError reports startup failures in a dialog as well as the log.
	ShowBlockingError bool
}

// Bootstrap loads configuration, sets up logging and resolves the trigger
// button.
func Bootstrap(opts Options) (*config.Config, hotkey.Button, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}
	if cfg.EnvPath != "" {
		log.Printf("Config: loaded %s", cfg.EnvPath)
	}

	button, err := hotkey.ParseButton(cfg.TriggerButton)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid %s: %w", config.TriggerButtonEnvVar, err)
	}

	if opts.RequireDisplay {
		if n := screenshot.NumDisplays(); n == 0 {
			if opts.ShowBlockingError {
				notification.ShowBlockingError("Screen Cue Overlay", "No active display found. Screen capture is unavailable.")
			}
			return nil, 0, fmt.Errorf("no active display found")
		}
	}

	log.Printf("Config: trigger button %s, pixel count logging %v", button, cfg.LogPixelCounts)
	return cfg, button, nil
}
