package constants

import "time"

// Context keys
const (
	ContextTokenData = "token_data"
)

// Token scopes
const (
	ScopeTokenAccess  = "access"
	ScopeTokenRefresh = "refresh"
)

// Permissions checked by the middleware (fail closed)
const (
	PermissionEventsCreate = "events:create"
	PermissionEventsUpdate = "events:update"
	PermissionEventsDelete = "events:delete"
)

// Database tuning
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Timeouts
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultTimeout        = 10 * time.Second
)

// Redis keys and channels
const (
	RedisKeyTokenBlacklist  = "token:blacklist:"
	LiveUpdateChannelPrefix = "shiftboard:events:"
)

// Asynq
const (
	QueueNotifications = "notifications"
)
