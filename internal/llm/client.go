package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "qwen3:8b"
)

// Client 访问本地 Ollama 服务
type Client struct {
	client       *resty.Client
	BaseURL      string
	Model        string
	probeTimeout time.Duration
}

func NewClient(baseURL, model string, requestTimeout, probeTimeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	c := resty.New()
	c.SetTimeout(requestTimeout)
	c.SetHeader("Content-Type", "application/json")

	return &Client{
		client:       c,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Model:        model,
		probeTimeout: probeTimeout,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type generateResponse struct {
	Response        string `json:"response"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
}

// Detection 模型猜出的剧集信息。字段都可能缺失/为 null，
// 缺的字段表单里对应的值保持不动。
type Detection struct {
	ShowName     *string  `json:"show_name"`
	Season       *string  `json:"season"`
	StartEpisode *flexInt `json:"start_episode"`
	Confidence   *string  `json:"confidence"`
}

// flexInt 容忍模型把数字写成字符串
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return fmt.Errorf("empty value")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

func (f flexInt) Int() int { return int(f) }

// CallLog 一次探测的完整往返记录，供界面日志面板展示
type CallLog struct {
	Model           string   `json:"model"`
	Prompt          string   `json:"prompt"`
	RawResponse     string   `json:"raw_response"`
	DurationMS      int64    `json:"duration_ms"`
	Filenames       []string `json:"filenames"`
	EvalCount       int      `json:"eval_count"`
	PromptEvalCount int      `json:"prompt_eval_count"`
}

// 模型偶尔会把 JSON 包在 markdown 代码块里，抽取第一个扁平对象
var jsonObjectRe = regexp.MustCompile(`\{[^{}]*\}`)

// DetectShowInfo 把文件名样本交给模型，解析出剧名/季度/起始集数。
// 任何失败都只意味着“没有建议”，调用方不会因此中断重命名流程。
func (c *Client) DetectShowInfo(filenames []string) (*Detection, *CallLog, error) {
	prompt := buildPrompt(filenames)
	callLog := &CallLog{Model: c.Model, Prompt: prompt, Filenames: filenames}

	start := time.Now()
	resp, err := c.client.R().
		SetBody(generateRequest{Model: c.Model, Prompt: prompt, Stream: false, Format: "json"}).
		Post(c.BaseURL + "/api/generate")
	callLog.DurationMS = time.Since(start).Milliseconds()

	if err != nil {
		return nil, callLog, fmt.Errorf("cannot connect to Ollama, is it running? (%w)", err)
	}
	if resp.IsError() {
		return nil, callLog, fmt.Errorf("ollama error: %s", resp.Status())
	}

	var envelope generateResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, callLog, fmt.Errorf("invalid response envelope: %w", err)
	}
	callLog.RawResponse = envelope.Response
	callLog.EvalCount = envelope.EvalCount
	callLog.PromptEvalCount = envelope.PromptEvalCount

	detection, err := parseDetection(envelope.Response)
	if err != nil {
		return nil, callLog, err
	}
	return detection, callLog, nil
}

func parseDetection(text string) (*Detection, error) {
	match := jsonObjectRe.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("could not parse LLM response as JSON")
	}
	var d Detection
	if err := json.Unmarshal([]byte(match), &d); err != nil {
		// 单个字段解析失败按缺失处理，整体解析失败才报错
		var loose map[string]json.RawMessage
		if err2 := json.Unmarshal([]byte(match), &loose); err2 != nil {
			return nil, fmt.Errorf("invalid JSON from LLM: %w", err)
		}
		d = Detection{}
		if raw, ok := loose["show_name"]; ok {
			_ = json.Unmarshal(raw, &d.ShowName)
		}
		if raw, ok := loose["season"]; ok {
			_ = json.Unmarshal(raw, &d.Season)
		}
		if raw, ok := loose["start_episode"]; ok {
			var fi flexInt
			if fi.UnmarshalJSON(raw) == nil {
				d.StartEpisode = &fi
			}
		}
		if raw, ok := loose["confidence"]; ok {
			_ = json.Unmarshal(raw, &d.Confidence)
		}
	}
	return &d, nil
}

// Available 探测 Ollama 是否在跑。任何错误都视为不可用，不致命。
func (c *Client) Available() bool {
	probe := resty.New().SetTimeout(c.probeTimeout)
	resp, err := probe.R().Get(c.BaseURL + "/api/tags")
	return err == nil && resp.StatusCode() == 200
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Models 列出本地已安装的模型
func (c *Client) Models() ([]string, error) {
	lister := resty.New().SetTimeout(5 * time.Second)
	resp, err := lister.R().Get(c.BaseURL + "/api/tags")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama error: %s", resp.Status())
	}
	var tags tagsResponse
	if err := json.Unmarshal(resp.Body(), &tags); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// buildPrompt 生成分析提示词，样本最多取 20 个文件名
func buildPrompt(filenames []string) string {
	limit := filenames
	if len(limit) > 20 {
		limit = limit[:20]
	}
	var files strings.Builder
	for _, f := range limit {
		files.WriteString("- ")
		files.WriteString(f)
		files.WriteString("\n")
	}

	return fmt.Sprintf(`Analyze these TV show episode filenames and extract the show information.

Filenames:
%s
Based on these filenames, determine:
1. The TV show name (clean, proper title case)
2. The season identifier (e.g., "S1", "S01", "Season 1" -> normalize to "S1" format)
3. The starting episode number from this batch

Common filename patterns include:
- Show.Name.S01E01.Title.Quality.mkv
- Show_Name_1x01_Title.mkv
- Show Name - 101 - Title.mkv
- [Group] Show Name - 01.mkv

Respond with ONLY a JSON object in this exact format:
{"show_name": "The Show Name", "season": "S1", "start_episode": 1, "confidence": "high"}

Use "high" confidence if patterns are clear, "medium" if some guessing was needed, "low" if very uncertain.
If you cannot determine a field, use null for that field.`, files.String())
}
