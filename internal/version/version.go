// Package version 保存构建时注入的版本信息
package version

import (
	"runtime/debug"
	"strings"
)

var (
	// Version 版本号，构建时通过 -ldflags 注入，未注入时取模块版本
	Version = "dev"

	// BuildTime 构建时间，通过 -ldflags 注入
	BuildTime = ""

	// GitCommit Git 提交哈希，通过 -ldflags 注入，未注入时取 vcs.revision
	GitCommit = ""
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "dev" {
		Version = moduleVersion(info.Main.Version)
	}
	if GitCommit == "" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				GitCommit = s.Value
			}
		}
	}
}

// moduleVersion 规范化模块版本，去掉 'v' 前缀
func moduleVersion(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" || v == "(devel)" {
		return "dev"
	}
	return v
}

// GetVersion 获取完整版本信息
func GetVersion() string {
	version := "v" + Version
	if BuildTime != "" {
		version += " (built " + BuildTime + ")"
	}
	if len(GitCommit) >= 8 {
		version += " commit " + GitCommit[:8]
	}
	return version
}

// GetShortVersion 获取简短版本号
func GetShortVersion() string {
	return "v" + Version
}
