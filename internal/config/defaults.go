package config

const (
	defaultSpoolDir          = "~/.local/share/stream2frame/spool"
	defaultLogDir            = "~/.local/share/stream2frame/logs"
	defaultOutputDir         = "~/stream2frame/videos"
	defaultProcessingCommand = "stream2frame-process"
	defaultTimeoutHours      = 24
	defaultLookbackDays      = 1
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultNotifyTimeout     = 10
	defaultReportMinFrames   = 1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SpoolDir:  defaultSpoolDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Processing: Processing{
			Command:      defaultProcessingCommand,
			TimeoutHours: defaultTimeoutHours,
			LookbackDays: defaultLookbackDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Runs:           true,
			Errors:         true,
			Cameras:        true,
		},
		Report: Report{
			Enabled:   true,
			MinFrames: defaultReportMinFrames,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
