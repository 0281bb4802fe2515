// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

/*
Package api exposes the operator command surface over HTTP.

The admin API is a chi router serving JSON under /api/v1, plus unauthenticated
/health probes and the Prometheus /metrics endpoint.

# Routes

	GET    /api/v1/kick/{username}                          status check
	GET    /api/v1/scopes/{scope}                           settings view
	DELETE /api/v1/scopes/{scope}?confirm=true              clear scope
	PUT    /api/v1/scopes/{scope}/channel                   {"channel_id"}
	PUT    /api/v1/scopes/{scope}/role                      {"role_id"}
	DELETE /api/v1/scopes/{scope}/role
	PUT    /api/v1/scopes/{scope}/interval                  {"seconds"}
	PUT    /api/v1/scopes/{scope}/style                     {"style"}
	POST   /api/v1/scopes/{scope}/toggles/{toggle}          {"enabled"}
	POST   /api/v1/scopes/{scope}/force
	GET    /api/v1/scopes/{scope}/streamers
	POST   /api/v1/scopes/{scope}/streamers                 {"username","channel_id"}
	DELETE /api/v1/scopes/{scope}/streamers/{username}
	PUT    /api/v1/scopes/{scope}/streamers/{username}/role {"role_id"}
	DELETE /api/v1/scopes/{scope}/streamers/{username}/role
	PUT    .../streamers/{username}/message                 {"message"}
	PUT    .../streamers/{username}/delete-on-offline       {"enabled"}
	POST   .../streamers/{username}/test                    {"channel_id"}

# Responses

Every response uses the APIResponse envelope:

	{
	  "success": false,
	  "error": {"code": "ALREADY_MONITORED", "message": "⚠️ **Nova** is already being monitored!"},
	  "meta": {"request_id": "...", "timestamp": "..."}
	}

Command failures keep their command code (upper-cased) and operator message;
the HTTP status is derived from the code (see statusForCode).

# Authentication

When server.admin_token is set, every /api/v1 route requires
"Authorization: Bearer <token>". Health and metrics stay open.
*/
package api
