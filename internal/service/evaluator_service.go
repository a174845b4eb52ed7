package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"talentgate_backend/internal/config"
	"talentgate_backend/pkg/logger"

	"go.uber.org/zap"
)

// EvaluatorService 调用外部代码评测能力（OpenAI 兼容接口）。
// 黑盒契约: (code, language, problem, testResults) -> {logicScore≤50, semanticsScore≤50, penalty≤0, feedback}
// 外部能力不可用或返回不可解析时本地降级，提交永远不会停留在未评分状态。
type EvaluatorService struct {
	config config.EvaluatorConfig
	client *http.Client
}

func NewEvaluatorService(cfg config.EvaluatorConfig) *EvaluatorService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EvaluatorService{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// TestCaseResult 笔试环境回传的单个测试点结果（测试执行本身是外部能力）
type TestCaseResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// EvalScores 评测分项。Fallback 置位表示分数来自本地兜底算法。
type EvalScores struct {
	LogicScore     float64 `json:"logicScore"`     // ≤50
	SemanticsScore float64 `json:"semanticsScore"` // ≤50
	Penalty        float64 `json:"penalty"`        // ≤0
	Feedback       string  `json:"feedback"`
	Fallback       bool    `json:"fallback"`
}

// AssessmentScore 分项合成为 0-100 的笔试分
func (e EvalScores) AssessmentScore() float64 {
	score := e.LogicScore + e.SemanticsScore + e.Penalty
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type evaluatorVerdict struct {
	LogicScore     float64 `json:"logicScore"`
	SemanticsScore float64 `json:"semanticsScore"`
	Penalty        float64 `json:"penalty"`
	Feedback       string  `json:"feedback"`
}

// Evaluate 评测一次提交。任何外部失败都吞掉并走确定性兜底，只记日志。
func (s *EvaluatorService) Evaluate(code, language, problem string, testResults []TestCaseResult) EvalScores {
	scores, err := s.callRemote(code, language, problem, testResults)
	if err != nil {
		logger.Log.Warn("evaluator unavailable, using fallback scoring",
			zap.Error(err), zap.String("language", language))
		return fallbackScores(testResults)
	}
	return scores
}

func (s *EvaluatorService) callRemote(code, language, problem string, testResults []TestCaseResult) (EvalScores, error) {
	if s.config.BaseURL == "" {
		return EvalScores{}, fmt.Errorf("evaluator not configured")
	}

	prompt := buildEvaluationPrompt(code, language, problem, testResults)
	reqBody := chatCompletionRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "你是一个严格的笔试代码评审。只输出要求的 JSON，不要输出其他任何内容。"},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, _ := json.Marshal(reqBody)
	req, err := http.NewRequest("POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return EvalScores{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return EvalScores{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return EvalScores{}, fmt.Errorf("evaluator API error (status %d)", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return EvalScores{}, err
	}
	if completion.Error != nil {
		return EvalScores{}, fmt.Errorf("evaluator API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return EvalScores{}, fmt.Errorf("evaluator returned no choices")
	}

	verdict, err := parseVerdict(completion.Choices[0].Message.Content)
	if err != nil {
		return EvalScores{}, err
	}

	return EvalScores{
		LogicScore:     verdict.LogicScore,
		SemanticsScore: verdict.SemanticsScore,
		Penalty:        verdict.Penalty,
		Feedback:       verdict.Feedback,
	}, nil
}

func buildEvaluationPrompt(code, language, problem string, testResults []TestCaseResult) string {
	var b strings.Builder
	b.WriteString("评审以下笔试提交并打分。\n\n")
	b.WriteString("题目:\n" + problem + "\n\n")
	b.WriteString("语言: " + language + "\n\n")
	b.WriteString("提交代码:\n```\n" + code + "\n```\n\n")
	b.WriteString("测试点结果:\n")
	for _, t := range testResults {
		status := "FAIL"
		if t.Passed {
			status = "PASS"
		}
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, status)
	}
	b.WriteString("\n只输出一个 JSON 对象，字段与约束如下：\n")
	b.WriteString(`{"logicScore": <0-50>, "semanticsScore": <0-50>, "penalty": <-20-0>, "feedback": "<一段简短评语>"}`)
	return b.String()
}

// parseVerdict 容忍 JSON 周围的噪声（markdown 代码块等），并校验分项边界
func parseVerdict(content string) (evaluatorVerdict, error) {
	var v evaluatorVerdict

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return v, fmt.Errorf("no JSON object in evaluator output")
	}

	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return v, fmt.Errorf("unparseable evaluator output: %w", err)
	}
	if v.LogicScore < 0 || v.LogicScore > 50 ||
		v.SemanticsScore < 0 || v.SemanticsScore > 50 ||
		v.Penalty > 0 || v.Penalty < -50 {
		return v, fmt.Errorf("evaluator scores out of bounds: %+v", v)
	}
	return v, nil
}

// fallbackScores 确定性兜底：逻辑分按测试通过率折算，质量分取中性值 25
func fallbackScores(testResults []TestCaseResult) EvalScores {
	passRate := 0.0
	if len(testResults) > 0 {
		passed := 0
		for _, t := range testResults {
			if t.Passed {
				passed++
			}
		}
		passRate = float64(passed) / float64(len(testResults))
	}
	return EvalScores{
		LogicScore:     passRate * 50,
		SemanticsScore: 25,
		Penalty:        0,
		Feedback:       "Automated fallback score based on test pass rate; manual review recommended.",
		Fallback:       true,
	}
}
