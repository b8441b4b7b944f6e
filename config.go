package mdsite

import "github.com/goliatone/go-mdsite/internal/runtimeconfig"

var (
	ErrContentDirRequired       = runtimeconfig.ErrContentDirRequired
	ErrTemplatesDirRequired     = runtimeconfig.ErrTemplatesDirRequired
	ErrOutputDirRequired        = runtimeconfig.ErrOutputDirRequired
	ErrOutputDirOverlapsInput   = runtimeconfig.ErrOutputDirOverlapsInput
	ErrLayoutRequired           = runtimeconfig.ErrLayoutRequired
	ErrLayoutInvalid            = runtimeconfig.ErrLayoutInvalid
	ErrWorkersInvalid           = runtimeconfig.ErrWorkersInvalid
	ErrStrictHTMLRequiresVerify = runtimeconfig.ErrStrictHTMLRequiresVerify
	ErrMarkdownEngineUnknown    = runtimeconfig.ErrMarkdownEngineUnknown
	ErrMaxPassesInvalid         = runtimeconfig.ErrMaxPassesInvalid
	ErrTimeoutInvalid           = runtimeconfig.ErrTimeoutInvalid
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	TemplatesConfig      = runtimeconfig.TemplatesConfig
	GeneratorConfig      = runtimeconfig.GeneratorConfig
	CommandsConfig       = runtimeconfig.CommandsConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML configuration file. Relative directories are
// resolved against the file's location.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
