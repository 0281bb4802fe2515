// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

/*
Package services adapts Kickwatch components to suture.Service.

HTTPServerService binds the listener, runs http.Server.Serve and translates
context cancellation into Shutdown with a drain timeout. The scheduler
already implements Serve and is added to the tree directly.

ReadySignal gates the scheduler's first cycle until the API has bound its
port.
*/
package services
