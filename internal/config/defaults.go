package config

const (
	defaultWorkDir            = "~/.local/share/video_pipeline/sessions"
	defaultLogDir             = "~/.local/share/video_pipeline/logs"
	defaultAPIBind            = "127.0.0.1:7654"
	defaultLauncher           = "uvx"
	defaultColorEditTool      = "color_edit"
	defaultWhisperTool        = "whisper"
	defaultChapterMakerTool   = "yt_chapter_maker"
	defaultUploaderTool       = "yt_upload"
	defaultVolumeThreshold    = "0.002"
	defaultToolTimeoutSeconds = 3600
	defaultPollInterval       = 5
	defaultErrorRetryInterval = 10
	defaultMaxConcurrent      = 2
	defaultOpenAIAPIKeyFile   = "~/.config/video_pipeline/openai_api_key.txt"
	defaultClientSecretsFile  = "~/.config/video_pipeline/client_secrets.json"
	defaultTokenFile          = "~/.config/video_pipeline/token.pickle"
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Tools: Tools{
			Launcher:        defaultLauncher,
			ColorEdit:       defaultColorEditTool,
			Whisper:         defaultWhisperTool,
			ChapterMaker:    defaultChapterMakerTool,
			Uploader:        defaultUploaderTool,
			VolumeThreshold: defaultVolumeThreshold,
			TimeoutSeconds:  defaultToolTimeoutSeconds,
		},
		Pipeline: Pipeline{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			MaxConcurrent:      defaultMaxConcurrent,
		},
		Credentials: Credentials{
			OpenAIAPIKeyFile:  defaultOpenAIAPIKeyFile,
			ClientSecretsFile: defaultClientSecretsFile,
			TokenFile:         defaultTokenFile,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
