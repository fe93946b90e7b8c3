package main

import (
	"fmt"

	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

// Build information, set via ldflags:
//
//	go build -ldflags "-X main.Version=1.2.0 -X main.Commit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%FT%TZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// versionString describes the running build in one line.
func versionString() string {
	return fmt.Sprintf("ledsync %s (commit %s, built %s)", Version, Commit, util.FormatHumanTime(BuildTime))
}
