package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//serverTimeouts
	ReadTimeout            = 5 * time.Minute //uploads can be large
	WriteTimeout           = 5 * time.Minute
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":8081"

	//uploads
	UploadsDir           = "uploads"
	MaxUploadSize  int64 = 500 << 20 //500mb
	UploadFormFile       = "file"

	//flat-file state, relative to the uploads dir unless noted
	HistoryFileName = "history.json"
	GroupsFileName  = "groups.json"
	LockFileName    = "lock.txt"
	StatusFileName  = "status.txt"
	ProcessLogName  = "process.log"
	TagsFile        = "tags.json" //relative to the working dir

	//external tool writes this into status.txt on success
	ToolSuccessMarker = "2"

	//scheduler
	SchedulerSpec     = "@every 10s"
	HeartbeatInterval = 30 * time.Second
	StaleLockTimeout  = 6 * time.Hour

	//rescans of the extraction list run in parallel up to this limit
	ScanConcurrency = 4

	//rendering
	RenderLocale       = "en-US"
	DefaultColumnCount = 20
	RowHeightPx        = 25
	ColumnWidthPx      = 80

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisRenderCacheDB  = 2
	RedisRenderCacheTTL = 7 * 24 * time.Hour
	RedisKeyPrefix      = "extractview:render:"

	//onedrive
	OneDriveRemoteFolder = "uploads"
	OneDriveGraphBaseURL = "https://graph.microsoft.com/v1.0"

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second
)
