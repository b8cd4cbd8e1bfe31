package pattern

import (
	"fmt"
	"strings"
)

// 内置命名模板，与下拉框选项一一对应
const (
	PatternSE    = "{show} {season}E{episode}"
	PatternCross = "{show}.{season}x{episode}"
	PatternDash  = "{show} - {season}{episode}"
)

// BuiltIn 返回全部内置模板，顺序即展示顺序
func BuiltIn() []string {
	return []string{PatternSE, PatternCross, PatternDash}
}

// FormatEpisode 渲染集数：0-99 补零成两位，>=100 保持自然位数
func FormatEpisode(n int) string {
	return fmt.Sprintf("%02d", n)
}

// Apply 按模板生成最终文件名。
// 内置模板走固定拼接；其余一律视为自定义模板，按 {show}、{season}、{episode}
// 固定顺序各做一次字面替换（不转义大括号），
// 扩展名（含点号）无条件追加在末尾。
func Apply(tmpl, show, season, episode, ext string) string {
	switch tmpl {
	case PatternSE:
		return fmt.Sprintf("%s %sE%s%s", show, season, episode, ext)
	case PatternCross:
		return fmt.Sprintf("%s.%sx%s%s", show, season, episode, ext)
	case PatternDash:
		return fmt.Sprintf("%s - %s%s%s", show, season, episode, ext)
	}

	result := strings.ReplaceAll(tmpl, "{show}", show)
	result = strings.ReplaceAll(result, "{season}", season)
	result = strings.ReplaceAll(result, "{episode}", episode)
	return result + ext
}
