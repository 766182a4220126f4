// Command stream2frame is the scheduler entry point. A bare invocation runs
// one full scheduling cycle (the cron contract); subcommands expose read-only
// status, backlog management, history, the camera audit, and configuration
// utilities.
package main
