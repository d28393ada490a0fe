/*
Package monitoring provides Prometheus metrics for the application manager.

# Overview

Each Metrics value owns its own registry, so several managers (or tests) can
coexist in one process. All recording methods accept a nil receiver.

# Metrics

  - appmgr_instances_active: entries in the instance table
  - appmgr_launches_total{strategy,result}: launch attempts
  - appmgr_terminations_total: instances removed on peer closure
  - appmgr_connections_total{result}: ConnectToApplication requests
  - appmgr_commands_total: commands read from control pipes
  - appmgr_control_sessions: open websocket control sessions
  - appmgr_http_*: introspection server traffic
  - appmgr_uptime_seconds

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
