package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/solthius/episode-manager/internal/pattern"
)

// BackupLogName 重命名日志文件名，计划永远不会把它列为改名对象
const BackupLogName = "rename_backup.txt"

// 识别的扩展名集合（忽略大小写）
var (
	VideoExts    = map[string]bool{".mkv": true, ".mp4": true, ".avi": true}
	SubtitleExts = map[string]bool{".ass": true, ".srt": true, ".sub": true}
)

// ItemKind 区分计划条目所属的文件类别
type ItemKind string

const (
	KindVideo    ItemKind = "video"
	KindSubtitle ItemKind = "subtitle"
)

// Item 一条待执行的重命名指令
type Item struct {
	SourcePath string   `json:"source_path"`
	SourceName string   `json:"source_name"`
	NewName    string   `json:"new_name"`
	Episode    int      `json:"episode"`
	Kind       ItemKind `json:"kind"`
}

// Plan 按执行顺序排列的重命名计划：先视频、后字幕
type Plan struct {
	Directory string `json:"directory"`
	Items     []Item `json:"items"`
}

// Request 构建计划所需的全部输入
type Request struct {
	Directory        string
	Show             string
	Season           string
	StartEpisode     int
	Pattern          string
	IncludeVideo     bool
	IncludeSubtitles bool
}

// Build 按请求生成重命名计划。
// 集数分配是纯位置性的：排序后第 i 个视频文件拿到 StartEpisode+i，
// 相同下标的字幕文件复用同一集数，超出视频数量的字幕被丢弃。
// 目录无法读取时返回空计划和错误，由调用方作为非致命状况上报。
func Build(req Request) (Plan, error) {
	plan := Plan{Directory: req.Directory}

	entries, err := os.ReadDir(req.Directory)
	if err != nil {
		return plan, fmt.Errorf("cannot read directory: %w", err)
	}

	var videos, subtitles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || name == BackupLogName {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case req.IncludeVideo && VideoExts[ext]:
			videos = append(videos, name)
		case req.IncludeSubtitles && SubtitleExts[ext]:
			subtitles = append(subtitles, name)
		}
	}

	// 集数分配完全依赖这个排序，必须是与 locale 无关的字节序
	sort.Strings(videos)
	sort.Strings(subtitles)

	for i, name := range videos {
		ep := req.StartEpisode + i
		newName := pattern.Apply(req.Pattern, req.Show, req.Season,
			pattern.FormatEpisode(ep), filepath.Ext(name))
		plan.Items = append(plan.Items, Item{
			SourcePath: filepath.Join(req.Directory, name),
			SourceName: name,
			NewName:    newName,
			Episode:    ep,
			Kind:       KindVideo,
		})
	}

	// 字幕与视频按下标配对，而不是按名字相似度
	for i, name := range subtitles {
		if i >= len(videos) {
			break
		}
		ep := req.StartEpisode + i
		newName := pattern.Apply(req.Pattern, req.Show, req.Season,
			pattern.FormatEpisode(ep), filepath.Ext(name))
		plan.Items = append(plan.Items, Item{
			SourcePath: filepath.Join(req.Directory, name),
			SourceName: name,
			NewName:    newName,
			Episode:    ep,
			Kind:       KindSubtitle,
		})
	}

	return plan, nil
}

// ListMediaNames 返回目录里所有视频和字幕文件名（排序后），供 LLM 探测取样
func ListMediaNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if VideoExts[ext] || SubtitleExts[ext] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
