package scoring

// 最终分合成权重：简历 40%、笔试 60%
const (
	DefaultResumeWeight     = 0.40
	DefaultAssessmentWeight = 0.60
)

// FinalScore 合成结果连同全部输入与权重，审计时可重新推导
// swagger:model FinalScore
type FinalScore struct {
	ResumeScore      float64 `json:"resumeScore"`
	AssessmentScore  float64 `json:"assessmentScore"`
	ResumeWeight     float64 `json:"resumeWeight"`
	AssessmentWeight float64 `json:"assessmentWeight"`
	StrikeCount      int     `json:"strikeCount"`
	StrikePenaltyPct float64 `json:"strikePenaltyPct"`
	Value            float64 `json:"value"`
}

// Compose 合成最终分：加权混合后按 strike 数扣除百分比罚则，下限 0。
// 纯函数，三个输入决定唯一输出。
func Compose(resumeScore, assessmentScore float64, strikes int, strikePenaltyPct float64) FinalScore {
	f := FinalScore{
		ResumeScore:      resumeScore,
		AssessmentScore:  assessmentScore,
		ResumeWeight:     DefaultResumeWeight,
		AssessmentWeight: DefaultAssessmentWeight,
		StrikeCount:      strikes,
		StrikePenaltyPct: strikePenaltyPct,
	}

	base := resumeScore*DefaultResumeWeight + assessmentScore*DefaultAssessmentWeight
	penalty := float64(strikes) * strikePenaltyPct / 100
	value := base * (1 - penalty)
	if value < 0 {
		value = 0
	}
	f.Value = value
	return f
}
