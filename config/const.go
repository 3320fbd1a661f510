package config

import "strings"

// AppVersion is stamped at build time.
var AppVersion string

// AppName is the name of the application.
const AppName = "SpiceLock"

// AppID is the reverse-DNS identifier used for the preference store.
const AppID = "com.dixieflatline76.spicelock"

// LogSubDir is the sub directory for the log files and local state.
var LogSubDir = "." + strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// Layout of the vendor asset store consumed by the lock screen agent.
const (
	// DefaultCustomerDir holds user supplied assets for the idle assets agent.
	DefaultCustomerDir = "/Library/Application Support/com.apple.idleassetsd/Customer"
	ManifestFileName   = "entries.json"
	BackupSuffix       = ".bak"
	VideosSubDir       = "4KSDR240FPS"
	ThumbnailsSubDir   = "snapshots"
)

// Layout of this application's private state under the user's home.
const (
	CacheSubDir    = "cache"
	LedgerFileName = "injections.json"
)

// Extended attribute the agent expects on assets it did not download itself.
const (
	QuarantineAttr  = "com.apple.quarantine"
	QuarantineValue = "0083;00000000;idleassetsd;"
)

// Agent reload command. killall exits non-zero with this text when the agent
// is not running.
const (
	DefaultAgentCommand = "killall"
	DefaultAgentProcess = "idleassetsd"
	AgentNotRunningText = "No matching processes"
)
