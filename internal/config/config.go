package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig OpenAI兼容LLM服务的配置
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	APIURL      string  `yaml:"api_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// ServerConfig HTTP服务器配置
type ServerConfig struct {
	Address     string   `yaml:"address"`      // 例如 ":8000"
	CORSOrigins []string `yaml:"cors_origins"` // 允许的跨域来源
	Debug       bool     `yaml:"debug"`        // debug模式下开放文档端点并返回详细错误
}

// ResumeConfig 简历数据配置
type ResumeConfig struct {
	DataPath  string `yaml:"data_path"`  // 简历JSON文件路径
	OwnerName string `yaml:"owner_name"` // 简历主人的姓名，用于系统提示词
}

// AgentConfig 对话代理配置
type AgentConfig struct {
	MaxToolRounds int `yaml:"max_tool_rounds"` // 每轮对话允许的模型推理/工具调用轮数上限
}

// RedisConfig 可选的Redis会话存储配置。Address为空时使用进程内存储。
type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	KeyPrefix  string `yaml:"key_prefix"`
	TTLMinutes int    `yaml:"ttl_minutes"` // 会话记录过期时间(分钟)，0表示不过期
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	TimeFormat   string `yaml:"time_format"`
	ReportCaller bool   `yaml:"report_caller"`
}

// Config 应用程序配置
type Config struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	Server ServerConfig `yaml:"server"`
	Resume ResumeConfig `yaml:"resume"`
	Agent  AgentConfig  `yaml:"agent"`
	Redis  RedisConfig  `yaml:"redis"`
	Logger LoggerConfig `yaml:"logger"`
}

// DefaultConfig 返回带默认值的配置
func DefaultConfig() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			APIURL:      "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Server: ServerConfig{
			Address:     ":8000",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Resume: ResumeConfig{
			DataPath: "./data/resume.json",
		},
		Agent: AgentConfig{
			MaxToolRounds: 3,
		},
		Redis: RedisConfig{
			KeyPrefix: "chatmemory:",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "pretty",
		},
	}
}

// LoadConfig 从文件加载配置并应用环境变量覆盖。
// configPath为空时按常见位置查找，找不到配置文件则只使用默认值和环境变量。
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	path := configPath
	if path == "" {
		for _, candidate := range []string{"config.yaml", "./config.yaml", "../config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			// 显式指定的配置文件必须存在
			if configPath != "" {
				return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides 用环境变量覆盖文件配置，环境变量优先
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_URL"); v != "" {
		cfg.OpenAI.APIURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("BACKEND_PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		if len(origins) > 0 {
			cfg.Server.CORSOrigins = origins
		}
	}
	if v := os.Getenv("RESUME_DATA_PATH"); v != "" {
		cfg.Resume.DataPath = v
	}
	if v := os.Getenv("RESUME_OWNER_NAME"); v != "" {
		cfg.Resume.OwnerName = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.Debug = b
		}
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
}

// Validate 校验必填配置项。API密钥缺失属于致命的启动错误。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	if c.Agent.MaxToolRounds <= 0 {
		return fmt.Errorf("agent.max_tool_rounds 必须大于0")
	}
	return nil
}
