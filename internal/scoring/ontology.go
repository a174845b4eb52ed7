package scoring

import (
	"strings"
)

// CanonicalSkill 规范技能词条：规范名 + 文本别名集合
// 进程级只读词表，运行期不修改
type CanonicalSkill struct {
	Name    string
	Aliases []string
}

// DefaultOntology 内置技能词表。别名全部小写，匹配按整词进行。
var DefaultOntology = []CanonicalSkill{
	{Name: "javascript", Aliases: []string{"javascript", "js", "ecmascript"}},
	{Name: "typescript", Aliases: []string{"typescript", "ts"}},
	{Name: "react", Aliases: []string{"react", "reactjs", "react.js"}},
	{Name: "node", Aliases: []string{"node", "nodejs", "node.js"}},
	{Name: "angular", Aliases: []string{"angular", "angularjs"}},
	{Name: "vue", Aliases: []string{"vue", "vuejs", "vue.js"}},
	{Name: "python", Aliases: []string{"python", "python3"}},
	{Name: "java", Aliases: []string{"java"}},
	{Name: "c++", Aliases: []string{"c++", "cpp"}},
	{Name: "c#", Aliases: []string{"c#", "csharp", ".net", "dotnet"}},
	{Name: "go", Aliases: []string{"go", "golang"}},
	{Name: "rust", Aliases: []string{"rust"}},
	{Name: "php", Aliases: []string{"php", "laravel"}},
	{Name: "ruby", Aliases: []string{"ruby", "rails", "ruby on rails"}},
	{Name: "swift", Aliases: []string{"swift"}},
	{Name: "kotlin", Aliases: []string{"kotlin"}},
	{Name: "sql", Aliases: []string{"sql"}},
	{Name: "mysql", Aliases: []string{"mysql", "mariadb"}},
	{Name: "postgres", Aliases: []string{"postgres", "postgresql"}},
	{Name: "mongodb", Aliases: []string{"mongodb", "mongo"}},
	{Name: "redis", Aliases: []string{"redis"}},
	{Name: "kafka", Aliases: []string{"kafka"}},
	{Name: "docker", Aliases: []string{"docker"}},
	{Name: "kubernetes", Aliases: []string{"kubernetes", "k8s"}},
	{Name: "aws", Aliases: []string{"aws", "amazon web services"}},
	{Name: "gcp", Aliases: []string{"gcp", "google cloud"}},
	{Name: "azure", Aliases: []string{"azure"}},
	{Name: "terraform", Aliases: []string{"terraform"}},
	{Name: "git", Aliases: []string{"git", "github", "gitlab"}},
	{Name: "linux", Aliases: []string{"linux", "unix"}},
	{Name: "html", Aliases: []string{"html", "html5"}},
	{Name: "css", Aliases: []string{"css", "css3", "sass", "scss"}},
	{Name: "graphql", Aliases: []string{"graphql"}},
	{Name: "django", Aliases: []string{"django"}},
	{Name: "flask", Aliases: []string{"flask"}},
	{Name: "spring", Aliases: []string{"spring", "spring boot", "springboot"}},
	{Name: "machine learning", Aliases: []string{"machine learning", "ml", "deep learning"}},
	{Name: "tensorflow", Aliases: []string{"tensorflow"}},
	{Name: "pytorch", Aliases: []string{"pytorch"}},
}

// Ontology 别名到规范名的查找结构
type Ontology struct {
	skills []CanonicalSkill
	// alias（已规范化）→ 规范名
	aliasIndex map[string]string
}

func NewOntology(skills []CanonicalSkill) *Ontology {
	o := &Ontology{
		skills:     skills,
		aliasIndex: make(map[string]string),
	}
	for _, s := range skills {
		for _, a := range s.Aliases {
			o.aliasIndex[normalizeText(a)] = s.Name
		}
	}
	return o
}

var defaultOntology = NewOntology(DefaultOntology)

func Default() *Ontology {
	return defaultOntology
}

// normalizeText 小写化，并把除 . + # 以外的非字母数字字符替换为空格，
// 保住 node.js / c++ / c# 这类 token。
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '+', r == '#':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsToken 整词匹配：alias 必须作为完整 token（序列）出现，
// 禁止跨 token 边界的子串命中（"java" 不得命中 "javascript"）。
func containsToken(normalized, alias string) bool {
	if alias == "" {
		return false
	}
	padded := " " + normalized + " "
	return strings.Contains(padded, " "+alias+" ")
}

// Extract 返回文本中出现的规范技能集合。纯函数，输出已排重，顺序无关。
func (o *Ontology) Extract(text string) []string {
	normalized := normalizeText(text)
	seen := make(map[string]bool)
	var out []string
	for _, s := range o.skills {
		if seen[s.Name] {
			continue
		}
		for _, a := range s.Aliases {
			if containsToken(normalized, normalizeText(a)) {
				seen[s.Name] = true
				out = append(out, s.Name)
				break
			}
		}
	}
	return out
}

// Canonicalize 把单个技能名映射为规范名；词表之外的技能保留其规范化文本
func (o *Ontology) Canonicalize(skill string) string {
	n := normalizeText(skill)
	if canonical, ok := o.aliasIndex[n]; ok {
		return canonical
	}
	return n
}

// CanonicalizeAll 保序映射并排重
func (o *Ontology) CanonicalizeAll(skills []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range skills {
		c := o.Canonicalize(s)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
