package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/John-Robertt/sortfiles/internal/diag"
	"github.com/John-Robertt/sortfiles/internal/domain"
	"github.com/John-Robertt/sortfiles/internal/infra/fsx"
)

const (
	// ErrCodeNotFound 表示未给 path 运行但 cwd 下没有 sortfiles.json。
	ErrCodeNotFound = domain.ErrCodeConfigNotFound
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeMissingPath 表示未给 path 运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = domain.ErrCodeConfigMissingPath
)

// CLIArgs 是 CLI 暴露的入口参数，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --dry-run=false 必须能覆盖 config.dry_run=true。
type CLIArgs struct {
	Path string

	Conflict    string
	ConflictSet bool

	DryRun    bool
	DryRunSet bool

	LogLevel    string
	LogLevelSet bool

	LogFile    string
	LogFileSet bool
}

// FileConfig 对应 sortfiles.json 的解析结构（由 viper 读取，mapstructure 解码）。
// 未知字段忽略。
type FileConfig struct {
	Path        string   `mapstructure:"path"`
	Conflict    string   `mapstructure:"conflict"`
	DryRun      *bool    `mapstructure:"dry_run"`
	ExcludeDirs []string `mapstructure:"exclude_dirs"`
	LogLevel    string   `mapstructure:"log_level"`
	LogFile     string   `mapstructure:"log_file"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（下游直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string

	Conflict fsx.ConflictPolicy
	DryRun   bool

	// ExcludeDirs 只影响去重模式的递归枚举；Duplicates/ 总是排除，不需要写在这里。
	ExcludeDirs []string

	LogLevel string
	// LogFile 为空表示日志写 stderr；非空时已是 clean + absolute。
	LogFile string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/sortfiles.json（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/sortfiles.json（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：
// - path：CLI path > config path（config 中的相对路径以 cwd 为基准）
// - conflict / dry_run / log_level / log_file：CLI > config > 默认
// - exclude_dirs：仅由 config 控制
func LoadEffective(fs afero.Fs, cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, domain.ConfigFileName)

		fc, _, err := readFileConfig(fs, cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(cwdAbs, absPath, cli, fc, cfgPath)
	}

	cfgPath := filepath.Join(cwdAbs, domain.ConfigFileName)
	fc, exists, err := readFileConfig(fs, cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}
	return merge(cwdAbs, absCleanFrom(cwdAbs, fc.Path), cli, fc, cfgPath)
}

func merge(cwdAbs, absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	conflictRaw := fc.Conflict
	if cli.ConflictSet {
		conflictRaw = cli.Conflict
	}
	conflict, err := fsx.ParseConflictPolicy(conflictRaw)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	dryRun := false
	if cli.DryRunSet {
		dryRun = cli.DryRun
	} else if fc.DryRun != nil {
		dryRun = *fc.DryRun
	}

	level := fc.LogLevel
	if cli.LogLevelSet {
		level = cli.LogLevel
	}
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = diag.DefaultLevel
	}
	if _, err := diag.ParseLevel(level); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("log_level 无效：%q", level)}
	}

	logFile := fc.LogFile
	if cli.LogFileSet {
		logFile = cli.LogFile
	}
	if strings.TrimSpace(logFile) != "" {
		logFile = absCleanFrom(cwdAbs, logFile)
	}

	excl := make([]string, 0, len(fc.ExcludeDirs))
	for _, d := range fc.ExcludeDirs {
		if d = strings.TrimSpace(d); d != "" {
			excl = append(excl, d)
		}
	}

	return EffectiveConfig{
		Path:        absPath,
		Conflict:    conflict,
		DryRun:      dryRun,
		ExcludeDirs: excl,
		LogLevel:    level,
		LogFile:     logFile,
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 通过 viper 读取 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(fs afero.Fs, path string) (fc FileConfig, exists bool, err error) {
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return FileConfig{}, false, err
	}
	if !ok {
		return FileConfig{}, false, nil
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return FileConfig{}, true, err
	}
	if err := v.Unmarshal(&fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
