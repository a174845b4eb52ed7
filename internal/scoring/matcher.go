package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 各分项满分
const (
	MaxSkillScore       = 50.0
	MaxExperienceScore  = 20.0
	MaxDepartmentScore  = 15.0
	MaxProjectScore     = 10.0
	MaxDescriptionScore = 5.0
)

// 核心技能（需求列表前半）与次要技能的权重，占 100 分技能子量表
const (
	coreSkillWeight      = 70.0
	secondarySkillWeight = 30.0
)

// 职位描述未提及任何部门关键词时的中性分
const neutralDepartmentScore = 7.0

// MatchScoreResult 简历-职位匹配结果：总分 + 五个有界分项 + 证据
// swagger:model MatchScoreResult
type MatchScoreResult struct {
	TotalScore       float64 `json:"totalScore"`
	SkillScore       float64 `json:"skillScore"`
	ExperienceScore  float64 `json:"experienceScore"`
	DepartmentScore  float64 `json:"departmentScore"`
	ProjectScore     float64 `json:"projectScore"`
	DescriptionScore float64 `json:"descriptionScore"`
	MatchedSkills    []string `json:"matchedSkills"`
	MissingSkills    []string `json:"missingSkills"`
	Explanation      string   `json:"explanation"`
}

// departmentKeywords 固定部门关键词表。
// 这是一个文本启发式，行为保持稳定比语义精确更重要。
var departmentKeywords = []string{
	"engineering", "development", "marketing", "sales", "finance",
	"accounting", "human resources", "recruiting", "design", "product",
	"operations", "data", "analytics", "security", "legal", "support",
	"research", "quality",
}

var (
	yearsMention   = regexp.MustCompile(`(\d+)\s*\+?\s*(?:years?|yrs?)`)
	firstInteger   = regexp.MustCompile(`\d+`)
	projectHeading = regexp.MustCompile(`(?im)^\s*(?:personal\s+projects?|side\s+projects?|academic\s+projects?|projects?|portfolio)\b`)
	// 项目段落的结束边界：下一个常见简历小节标题
	nextHeading = regexp.MustCompile(`(?im)^\s*(?:education|experience|work\s+experience|employment|skills|certifications?|awards?|languages|references)\b`)
)

// ComputeMatchScore 用确定性的加权算法给出候选人与职位的匹配分。
// 相同输入恒得相同输出，不依赖任何外部能力。
func ComputeMatchScore(resumeText string, resumeSkills, jobSkills []string, jobExperience, jobDescription string) MatchScoreResult {
	o := Default()

	required := o.CanonicalizeAll(jobSkills)
	candidate := make(map[string]bool)
	for _, s := range o.CanonicalizeAll(resumeSkills) {
		candidate[s] = true
	}

	result := MatchScoreResult{}
	result.SkillScore, result.MatchedSkills, result.MissingSkills = scoreSkills(required, candidate)
	result.ExperienceScore = scoreExperience(resumeText, jobExperience)
	result.DepartmentScore = scoreDepartment(resumeText, jobDescription)
	result.ProjectScore = scoreProjects(resumeText, required, o)
	result.DescriptionScore = scoreDescription(jobDescription, candidate, o)

	total := result.SkillScore + result.ExperienceScore + result.DepartmentScore +
		result.ProjectScore + result.DescriptionScore
	if total > 100 {
		total = 100
	}
	result.TotalScore = total
	result.Explanation = explain(result)
	return result
}

// scoreSkills 技能分 ≤50。需求按输入顺序切成核心半区（前 ceil(n/2)）与次要半区，
// 核心命中按 70%、次要按 30% 计入 100 分子量表后折算到 50 分。
// 前置需求权重更高是有意的优先级设计，不是实现巧合。
func scoreSkills(required []string, candidate map[string]bool) (float64, []string, []string) {
	if len(required) == 0 {
		return 0, nil, nil
	}

	var matched, missing []string
	for _, s := range required {
		if candidate[s] {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}

	coreLen := (len(required) + 1) / 2
	core := required[:coreLen]
	secondary := required[coreLen:]

	coreHits := 0
	for _, s := range core {
		if candidate[s] {
			coreHits++
		}
	}
	coreRate := float64(coreHits) / float64(len(core))

	var subScale float64
	if len(secondary) == 0 {
		subScale = coreRate * 100
	} else {
		secondaryHits := 0
		for _, s := range secondary {
			if candidate[s] {
				secondaryHits++
			}
		}
		secondaryRate := float64(secondaryHits) / float64(len(secondary))
		subScale = coreRate*coreSkillWeight + secondaryRate*secondarySkillWeight
	}

	return subScale * MaxSkillScore / 100, matched, missing
}

// scoreExperience 经验分 ≤20。
// 简历中完全找不到年限时给 5 分：按“未知”处理而不是按零年处理，
// 避免格式不含年限的简历被直接清零。
func scoreExperience(resumeText, jobExperience string) float64 {
	requiredYears := 0
	if m := firstInteger.FindString(jobExperience); m != "" {
		requiredYears, _ = strconv.Atoi(m)
	}

	candidateYears := -1
	for _, m := range yearsMention.FindAllStringSubmatch(strings.ToLower(resumeText), -1) {
		if y, err := strconv.Atoi(m[1]); err == nil && y > candidateYears {
			candidateYears = y
		}
	}

	switch {
	case candidateYears < 0:
		return 5
	case candidateYears >= requiredYears:
		return MaxExperienceScore
	case float64(candidateYears) >= 0.7*float64(requiredYears):
		return 15
	case candidateYears > 0:
		return 10
	default:
		return 5
	}
}

// scoreDepartment 部门契合分 ≤15。职位描述未提及任何部门关键词时给中性 7 分而非 0。
func scoreDepartment(resumeText, jobDescription string) float64 {
	jobNorm := normalizeText(jobDescription)
	resumeNorm := normalizeText(resumeText)

	var jobMentions []string
	for _, kw := range departmentKeywords {
		if containsToken(jobNorm, normalizeText(kw)) {
			jobMentions = append(jobMentions, kw)
		}
	}
	if len(jobMentions) == 0 {
		return neutralDepartmentScore
	}

	hits := 0
	for _, kw := range jobMentions {
		if containsToken(resumeNorm, normalizeText(kw)) {
			hits++
		}
	}
	return float64(hits) / float64(len(jobMentions)) * MaxDepartmentScore
}

// scoreProjects 项目分 ≤10：检测到项目小节且其中出现任一需求技能给 10，
// 小节存在但无技能重叠给 5，没有项目小节给 0。
// 小节文本先过词表抽取，别名（node.js、k8s）和需求的规范名同样算命中；
// 词表外的需求技能退回整词字面匹配。
func scoreProjects(resumeText string, required []string, o *Ontology) float64 {
	loc := projectHeading.FindStringIndex(resumeText)
	if loc == nil {
		return 0
	}

	section := resumeText[loc[1]:]
	if end := nextHeading.FindStringIndex(section); end != nil {
		section = section[:end[0]]
	}
	sectionNorm := normalizeText(section)
	sectionSkills := make(map[string]bool)
	for _, s := range o.Extract(section) {
		sectionSkills[s] = true
	}

	for _, s := range required {
		if sectionSkills[s] || containsToken(sectionNorm, s) {
			return MaxProjectScore
		}
	}
	return 5
}

// scoreDescription 文化/描述契合分 ≤5：从职位描述中抽技能，与候选人技能集求重叠比例。
func scoreDescription(jobDescription string, candidate map[string]bool, o *Ontology) float64 {
	descSkills := o.Extract(jobDescription)
	if len(descSkills) == 0 {
		return 0
	}
	hits := 0
	for _, s := range descSkills {
		if candidate[s] {
			hits++
		}
	}
	return float64(hits) / float64(len(descSkills)) * MaxDescriptionScore
}

// explain 由分数档位生成固定话术解释，纯映射，无外部调用
func explain(r MatchScoreResult) string {
	var overall string
	switch {
	case r.TotalScore >= 80:
		overall = "Excellent match for this role."
	case r.TotalScore >= 60:
		overall = "Good match with some gaps."
	case r.TotalScore >= 40:
		overall = "Moderate match; review carefully."
	default:
		overall = "Weak match for the stated requirements."
	}

	var facets []string
	if r.SkillScore >= MaxSkillScore*0.7 {
		facets = append(facets, "strong coverage of the required skills")
	} else if r.SkillScore >= MaxSkillScore*0.4 {
		facets = append(facets, "partial coverage of the required skills")
	} else {
		facets = append(facets, "limited coverage of the required skills")
	}
	if r.ExperienceScore >= MaxExperienceScore {
		facets = append(facets, "experience meets the requirement")
	} else if r.ExperienceScore >= 15 {
		facets = append(facets, "experience close to the requirement")
	} else {
		facets = append(facets, "experience below the requirement")
	}
	if r.ProjectScore >= MaxProjectScore {
		facets = append(facets, "relevant project work")
	}
	if len(r.MissingSkills) > 0 {
		facets = append(facets, fmt.Sprintf("missing: %s", strings.Join(r.MissingSkills, ", ")))
	}

	return overall + " The candidate shows " + strings.Join(facets, "; ") + "."
}
