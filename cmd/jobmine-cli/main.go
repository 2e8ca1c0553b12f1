package main

import (
	"context"

	"github.com/hkpeprah/jerbminer/cmd/jobmine-cli/commands"
	"github.com/hkpeprah/jerbminer/lib/osutil"
	"github.com/hkpeprah/jerbminer/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "jobmine-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(osutil.SignalContext())
}
