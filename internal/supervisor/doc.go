// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

/*
Package supervisor runs Kickwatch's long-lived services under suture v4.

# Overview

	RootSupervisor ("kickwatch")
	├── MonitorSupervisor ("monitor-layer")
	│   └── scheduler.Scheduler
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService (if server.enabled)

Each layer counts failures independently. A service that returns an error
or panics is restarted with suture's backoff; once FailureThreshold is
exceeded within FailureDecay the layer pauses for FailureBackoff.

Supervisor events (start, stop, failure, backoff) are logged through
sutureslog into the process zerolog stream via logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMonitorService(sched)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.Addr(), 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh

After shutdown, UnstoppedServiceReport names anything that ignored
cancellation for longer than ShutdownTimeout.
*/
package supervisor
