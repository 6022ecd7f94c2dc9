package registry

/// catalogOrder fixes the presentation order: tier 1 cloud, tier 2
// specialized, tier 3 local and custom.
var catalogOrder = []ID{
	OpenAI, Anthropic, ZAI, Google, DeepSeek, Mistral, Cohere,
	HuggingFace, Replicate, Together, Perplexity, Fireworks,
	Ollama, LMStudio, LocalAI, Custom,
}

var catalog = map[ID]*ProviderDescriptor{
	OpenAI: {
		ID:                OpenAI,
		Name:              "OpenAI",
		Description:       "Industry-leading models including GPT-4 and GPT-3.5",
		Website:           "https://platform.openai.com",
		Endpoint:          "https://api.openai.com/v1",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthBearer,
		DefaultModel:      "gpt-4-turbo",
		Models: []ModelDescriptor{
			{ID: "gpt-4", Name: "GPT-4", Description: "Most capable model, best for complex tasks", ContextWindow: 8192, Pricing: &Pricing{InputPerKTokens: 0.03, OutputPerKTokens: 0.06}},
			{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Description: "Faster and more affordable GPT-4", ContextWindow: 128000, Pricing: &Pricing{InputPerKTokens: 0.01, OutputPerKTokens: 0.03}},
			{ID: "gpt-4o", Name: "GPT-4o", Description: "Multimodal flagship model", ContextWindow: 128000, Pricing: &Pricing{InputPerKTokens: 0.005, OutputPerKTokens: 0.015}},
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Description: "Fast and efficient for most tasks", ContextWindow: 16385, Pricing: &Pricing{InputPerKTokens: 0.0005, OutputPerKTokens: 0.0015}},
		},
	},
	Anthropic: {
		ID:                Anthropic,
		Name:              "Anthropic",
		Description:       "Claude models with strong reasoning and safety",
		Website:           "https://www.anthropic.com",
		Endpoint:          "https://api.anthropic.com/v1",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthAPIKey,
		DefaultModel:      "claude-3-sonnet-20240229",
		Models: []ModelDescriptor{
			{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Description: "Most capable Claude model", ContextWindow: 200000, Pricing: &Pricing{InputPerKTokens: 0.015, OutputPerKTokens: 0.075}},
			{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet", Description: "Balanced performance and speed", ContextWindow: 200000, Pricing: &Pricing{InputPerKTokens: 0.003, OutputPerKTokens: 0.015}},
			{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", Description: "Fastest Claude model", ContextWindow: 200000, Pricing: &Pricing{InputPerKTokens: 0.00025, OutputPerKTokens: 0.00125}},
		},
	},
	ZAI: {
		ID:                ZAI,
		Name:              "Z.ai (GLM)",
		Description:       "Zhipu AI GLM series - powerful Chinese and English models",
		Website:           "https://open.bigmodel.cn",
		Endpoint:          "https://open.bigmodel.cn/api/paas/v4",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthBearer,
		DefaultModel:      "glm-4",
		Models: []ModelDescriptor{
			{ID: "glm-4", Name: "GLM-4", Description: "Latest GLM-4 model with enhanced capabilities", ContextWindow: 128000, Pricing: &Pricing{InputPerKTokens: 0.01, OutputPerKTokens: 0.01}},
			{ID: "glm-4v", Name: "GLM-4V", Description: "Multimodal GLM-4 with vision capabilities", ContextWindow: 2000, Pricing: &Pricing{InputPerKTokens: 0.01, OutputPerKTokens: 0.01}},
			{ID: "glm-3-turbo", Name: "GLM-3 Turbo", Description: "Fast and efficient GLM-3", ContextWindow: 128000, Pricing: &Pricing{InputPerKTokens: 0.0005, OutputPerKTokens: 0.0005}},
		},
	},
	Google: {
		ID:                Google,
		Name:              "Google",
		Description:       "Gemini models with multimodal capabilities",
		Website:           "https://ai.google.dev",
		Endpoint:          "https://generativelanguage.googleapis.com/v1",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthAPIKey,
		DefaultModel:      "gemini-pro",
		Models: []ModelDescriptor{
			{ID: "gemini-pro", Name: "Gemini Pro", Description: "Best model for text tasks", ContextWindow: 32760, Pricing: &Pricing{InputPerKTokens: 0.00025, OutputPerKTokens: 0.0005}},
			{ID: "gemini-pro-vision", Name: "Gemini Pro Vision", Description: "Multimodal model with vision", ContextWindow: 16384, Pricing: &Pricing{InputPerKTokens: 0.00025, OutputPerKTokens: 0.0005}},
			{ID: "gemini-ultra", Name: "Gemini Ultra", Description: "Most capable Gemini model", ContextWindow: 32760, Pricing: &Pricing{InputPerKTokens: 0.00125, OutputPerKTokens: 0.00375}},
		},
	},
	DeepSeek: {
		ID:                DeepSeek,
		Name:              "DeepSeek",
		Description:       "Specialized models for chat and coding",
		Website:           "https://www.deepseek.com",
		Endpoint:          "https://api.deepseek.com/v1",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthBearer,
		DefaultModel:      "deepseek-chat",
		Models: []ModelDescriptor{
			{ID: "deepseek-chat", Name: "DeepSeek Chat", Description: "General purpose chat model", ContextWindow: 32768, Pricing: &Pricing{InputPerKTokens: 0.0001, OutputPerKTokens: 0.0002}},
			{ID: "deepseek-coder", Name: "DeepSeek Coder", Description: "Specialized for code generation", ContextWindow: 16384, Pricing: &Pricing{InputPerKTokens: 0.0001, OutputPerKTokens: 0.0002}},
		},
	},
	Mistral: {
		ID:                Mistral,
		Name:              "Mistral AI",
		Description:       "High-performance open models",
		Website:           "https://mistral.ai",
		Endpoint:          "https://api.mistral.ai/v1",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthBearer,
		DefaultModel:      "mistral-medium",
		Models: []ModelDescriptor{
			{ID: "mistral-large", Name: "Mistral Large", Description: "Most capable Mistral model", ContextWindow: 32000, Pricing: &Pricing{InputPerKTokens: 0.008, OutputPerKTokens: 0.024}},
			{ID: "mistral-medium", Name: "Mistral Medium", Description: "Balanced performance", ContextWindow: 32000, Pricing: &Pricing{InputPerKTokens: 0.0027, OutputPerKTokens: 0.0081}},
			{ID: "mistral-small", Name: "Mistral Small", Description: "Fast and efficient", ContextWindow: 32000, Pricing: &Pricing{InputPerKTokens: 0.001, OutputPerKTokens: 0.003}},
		},
	},
	Cohere: {
		ID:                Cohere,
		Name:              "Cohere",
		Description:       "Enterprise-grade language models",
		Website:           "https://cohere.com",
		Endpoint:          "https://api.cohere.ai/v1",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthBearer,
		DefaultModel:      "command-r",
		Models: []ModelDescriptor{
			{ID: "command-r-plus", Name: "Command R+", Description: "Most capable Command model", ContextWindow: 128000, Pricing: &Pricing{InputPerKTokens: 0.003, OutputPerKTokens: 0.015}},
			{ID: "command-r", Name: "Command R", Description: "Balanced RAG-optimized model", ContextWindow: 128000, Pricing: &Pricing{InputPerKTokens: 0.0005, OutputPerKTokens: 0.0015}},
			{ID: "command", Name: "Command", Description: "General purpose model", ContextWindow: 4096, Pricing: &Pricing{InputPerKTokens: 0.001, OutputPerKTokens: 0.002}},
		},
	},
	HuggingFace: {
		ID:                HuggingFace,
		Name:              "Hugging Face",
		Description:       "Access to thousands of open source models",
		Website:           "https://huggingface.co",
		Endpoint:          "https://api-inference.huggingface.co/models",
		RequiresAuth:      true,
		SupportsStreaming: false,
		Auth:              AuthBearer,
		DefaultModel:      "meta-llama/Llama-2-70b-chat-hf",
		Models: []ModelDescriptor{
			{ID: "meta-llama/Llama-2-70b-chat-hf", Name: "Llama 2 70B", Description: "Meta's open source model", ContextWindow: 4096},
			{ID: "mistralai/Mistral-7B-Instruct-v0.2", Name: "Mistral 7B", Description: "Efficient open model", ContextWindow: 8192},
			{ID: "bigcode/starcoder", Name: "StarCoder", Description: "Code generation model", ContextWindow: 8192},
		},
	},
	Replicate: {
		ID:                Replicate,
		Name:              "Replicate",
		Description:       "Run open source models at scale",
		Website:           "https://replicate.com",
		Endpoint:          "https://api.replicate.com/v1",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthBearer,
		DefaultModel:      "meta/llama-2-70b-chat",
		Models: []ModelDescriptor{
			{ID: "meta/llama-2-70b-chat", Name: "Llama 2 70B Chat", Description: "Meta's Llama 2 on Replicate", ContextWindow: 4096},
		},
	},
	Together: {
		ID:                Together,
		Name:              "Together AI",
		Description:       "Fast inference for open source models",
		Website:           "https://together.ai",
		Endpoint:          "https://api.together.xyz/v1",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthBearer,
		DefaultModel:      "togethercomputer/llama-2-70b-chat",
		Models: []ModelDescriptor{
			{ID: "togethercomputer/llama-2-70b-chat", Name: "Llama 2 70B", Description: "Fast Llama 2 inference", ContextWindow: 4096, Pricing: &Pricing{InputPerKTokens: 0.0009, OutputPerKTokens: 0.0009}},
		},
	},
	Perplexity: {
		ID:                Perplexity,
		Name:              "Perplexity",
		Description:       "Search-optimized language models",
		Website:           "https://www.perplexity.ai",
		Endpoint:          "https://api.perplexity.ai",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthBearer,
		DefaultModel:      "sonar-medium-online",
		Models: []ModelDescriptor{
			{ID: "sonar-medium-online", Name: "Sonar Medium Online", Description: "Search-enhanced model", ContextWindow: 12000, Pricing: &Pricing{InputPerKTokens: 0.0006, OutputPerKTokens: 0.0006}},
		},
	},
	Fireworks: {
		ID:                Fireworks,
		Name:              "Fireworks AI",
		Description:       "Fast inference platform",
		Website:           "https://fireworks.ai",
		Endpoint:          "https://api.fireworks.ai/inference/v1",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthBearer,
		DefaultModel:      "accounts/fireworks/models/llama-v2-70b-chat",
		Models: []ModelDescriptor{
			{ID: "accounts/fireworks/models/llama-v2-70b-chat", Name: "Llama 2 70B", Description: "Fast Llama 2 on Fireworks", ContextWindow: 4096, Pricing: &Pricing{InputPerKTokens: 0.0009, OutputPerKTokens: 0.0009}},
		},
	},
	Ollama: {
		ID:                Ollama,
		Name:              "Ollama",
		Description:       "Run LLMs locally on your machine",
		Website:           "https://ollama.ai",
		Endpoint:          "http://localhost:11434/api",
		RequiresAuth:      false,
		SupportsStreaming: true,
		IsLocal:           true,
		Auth:              AuthNone,
		DefaultModel:      "llama2",
		SetupInstructions: `Install Ollama from ollama.ai and run "ollama pull llama2"`,
		Models: []ModelDescriptor{
			{ID: "llama2", Name: "Llama 2", Description: "Meta's open source model (local)", ContextWindow: 4096},
			{ID: "codellama", Name: "Code Llama", Description: "Code-specialized model (local)", ContextWindow: 16384},
			{ID: "mistral", Name: "Mistral", Description: "Efficient 7B model (local)", ContextWindow: 8192},
		},
	},
	LMStudio: {
		ID:                LMStudio,
		Name:              "LM Studio",
		Description:       "Desktop app for running local LLMs",
		Website:           "https://lmstudio.ai",
		Endpoint:          "http://localhost:1234/v1",
		RequiresAuth:      false,
		SupportsStreaming: true,
		IsLocal:           true,
		Auth:              AuthNone,
		DefaultModel:      "local-model",
		SetupInstructions: "Download LM Studio, load a model, and start the local server",
		Models: []ModelDescriptor{
			{ID: "local-model", Name: "Local Model", Description: "Any model loaded in LM Studio", ContextWindow: 4096},
		},
	},
	LocalAI: {
		ID:                LocalAI,
		Name:              "LocalAI",
		Description:       "Self-hosted OpenAI-compatible API",
		Website:           "https://localai.io",
		Endpoint:          "http://localhost:8080/v1",
		RequiresAuth:      false,
		SupportsStreaming: true,
		IsLocal:           true,
		Auth:              AuthNone,
		DefaultModel:      "gpt-3.5-turbo",
		SetupInstructions: "Install LocalAI and configure your models",
		Models: []ModelDescriptor{
			{ID: "gpt-3.5-turbo", Name: "Local GPT-3.5", Description: "OpenAI-compatible local model", ContextWindow: 4096},
		},
	},
	Custom: {
		ID:                Custom,
		Name:              "Custom Endpoint",
		Description:       "Use any OpenAI-compatible API endpoint",
		Website:           "",
		Endpoint:          "",
		RequiresAuth:      true,
		SupportsStreaming: true,
		Auth:              AuthCustom,
		DefaultModel:      "gpt-3.5-turbo",
		Models: []ModelDescriptor{
			{ID: "gpt-3.5-turbo", Name: "Custom Model", Description: "OpenAI-compatible model", ContextWindow: 4096},
		},
	},
}
