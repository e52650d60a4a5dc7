package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// appDirName 配置与数据目录名
const appDirName = "clipwatch"

// StorageType 存储类型
type StorageType string

const (
	StorageTypeSQLite StorageType = "sqlite"
	StorageTypeMySQL  StorageType = "mysql"
	StorageTypeJSON   StorageType = "json"
)

// DedupPolicy 去重策略
type DedupPolicy string

const (
	DedupContent DedupPolicy = "content" // 内容与上一条相同则跳过
	DedupCounter DedupPolicy = "counter" // 只看变化计数，每次变化都记录
)

// StorageConfig 存储配置
type StorageConfig struct {
	Type       StorageType `json:"type" toml:"type" yaml:"type"`
	Path       string      `json:"path" toml:"path" yaml:"path"`                   // sqlite 文件或 json 目录
	CustomPath bool        `json:"customPath" toml:"customPath" yaml:"customPath"` // 是否使用自定义路径
	ImageDir   string      `json:"imageDir" toml:"imageDir" yaml:"imageDir"`
	MySQL      MySQLConfig `json:"mySQL" toml:"mySQL" yaml:"mySQL"`
	MaxItems   int         `json:"maxItems" toml:"maxItems" yaml:"maxItems"` // 0 表示不限制
}

// MySQLConfig MySQL数据库配置
type MySQLConfig struct {
	Host     string `json:"host" toml:"host" yaml:"host"`
	Port     int    `json:"port" toml:"port" yaml:"port"`
	User     string `json:"user" toml:"user" yaml:"user"`
	Password string `json:"password" toml:"password" yaml:"password"`
	Database string `json:"database" toml:"database" yaml:"database"`
}

// DSN 构建 MySQL 连接串
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// MonitorConfig 剪贴板监听配置
type MonitorConfig struct {
	IntervalMs int         `json:"intervalMs" toml:"intervalMs" yaml:"intervalMs"`
	Dedup      DedupPolicy `json:"dedup" toml:"dedup" yaml:"dedup"`
}

// Interval 轮询间隔
func (c MonitorConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level" toml:"level" yaml:"level"`   // debug/info/warn/error
	Format string `json:"format" toml:"format" yaml:"format"` // text/json
}

// AppConfig 应用配置
type AppConfig struct {
	Storage StorageConfig `json:"storage" toml:"storage" yaml:"storage"`
	Monitor MonitorConfig `json:"monitor" toml:"monitor" yaml:"monitor"`
	Log     LogConfig     `json:"log" toml:"log" yaml:"log"`
}

// DataDir 默认数据目录
func DataDir() string {
	appDataDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", appDirName)
	}
	return filepath.Join(appDataDir, appDirName)
}

// DefaultPath 默认配置文件路径
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Load 加载配置，path 为空时使用默认路径，文件不存在时返回默认配置
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save 按扩展名写入配置
func Save(path string, cfg *AppConfig) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := encode(path, cfg)
	if err != nil {
		return fmt.Errorf("配置序列化失败: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func decode(path string, data []byte, cfg *AppConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func encode(path string, cfg *AppConfig) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	default:
		return json.MarshalIndent(cfg, "", "  ")
	}
}

// Validate 检查配置取值
func (c *AppConfig) Validate() error {
	switch c.Storage.Type {
	case StorageTypeSQLite, StorageTypeMySQL, StorageTypeJSON:
	default:
		return fmt.Errorf("不支持的存储类型: %s", c.Storage.Type)
	}
	switch c.Monitor.Dedup {
	case DedupContent, DedupCounter:
	default:
		return fmt.Errorf("不支持的去重策略: %s", c.Monitor.Dedup)
	}
	if c.Storage.MaxItems < 0 {
		return fmt.Errorf("maxItems 不能为负数: %d", c.Storage.MaxItems)
	}
	return nil
}

// normalize 填充缺省值
func (c *AppConfig) normalize() {
	def := Default()
	if c.Storage.Type == "" {
		c.Storage.Type = def.Storage.Type
	}
	if !c.Storage.CustomPath || c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath(c.Storage.Type)
	}
	if c.Storage.ImageDir == "" {
		c.Storage.ImageDir = def.Storage.ImageDir
	}
	if c.Monitor.IntervalMs <= 0 {
		c.Monitor.IntervalMs = def.Monitor.IntervalMs
	}
	if c.Monitor.Dedup == "" {
		c.Monitor.Dedup = def.Monitor.Dedup
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

func defaultStoragePath(t StorageType) string {
	if t == StorageTypeJSON {
		return filepath.Join(DataDir(), "history")
	}
	return filepath.Join(DataDir(), "history.db")
}

// Default 默认配置
func Default() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Type:       StorageTypeSQLite,
			Path:       defaultStoragePath(StorageTypeSQLite),
			CustomPath: false,
			ImageDir:   filepath.Join(DataDir(), "images"),
			MySQL: MySQLConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Password: "",
				Database: "clipboard",
			},
			MaxItems: 0,
		},
		Monitor: MonitorConfig{
			IntervalMs: 500,
			Dedup:      DedupContent,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
