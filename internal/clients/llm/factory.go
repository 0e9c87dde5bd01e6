package llm

import (
	"strings"
	"time"

	"github.com/yungbote/cognisync-backend/internal/platform/envutil"
	"github.com/yungbote/cognisync-backend/internal/platform/logger"
)

// FromEnv selects the provider once at process start (LLM_PROVIDER:
// mock | openai | deepseek | ollama | lmstudio). Unknown values fall back
// to the offline mock.
func FromEnv(log *logger.Logger) Provider {
	providerType := strings.ToLower(envutil.String("LLM_PROVIDER", "mock"))
	timeout := time.Duration(envutil.Int("LLM_TIMEOUT_SECONDS", 60)) * time.Second

	switch providerType {
	case "openai":
		return NewOpenAICompatible(log,
			envutil.String("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			envutil.String("OPENAI_API_KEY", ""),
			envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
			timeout)
	case "deepseek":
		return NewOpenAICompatible(log,
			envutil.String("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
			envutil.String("DEEPSEEK_API_KEY", ""),
			envutil.String("DEEPSEEK_MODEL", "deepseek-chat"),
			timeout)
	case "ollama":
		return NewOpenAICompatible(log,
			envutil.String("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
			"ollama",
			envutil.String("OLLAMA_MODEL", "llama3.2:latest"),
			timeout)
	case "lmstudio":
		return NewOpenAICompatible(log,
			envutil.String("LMSTUDIO_BASE_URL", "http://localhost:1234/v1"),
			"lmstudio",
			envutil.String("LMSTUDIO_MODEL", "local-model"),
			timeout)
	case "mock":
		return NewMock(log)
	default:
		log.Warn("Unknown LLM provider, falling back to mock", "provider", providerType)
		return NewMock(log)
	}
}
