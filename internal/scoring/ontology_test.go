package scoring

import (
	"reflect"
	"sort"
	"testing"
)

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestExtractWholeTokenOnly(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "java does not match inside javascript",
			text: "Senior JavaScript developer",
			want: []string{"javascript"},
		},
		{
			name: "java matches as standalone token",
			text: "Java and JavaScript developer",
			want: []string{"java", "javascript"},
		},
		{
			name: "dotted and symbol tokens survive normalization",
			text: "Built services in node.js, C++ and C#",
			want: []string{"c#", "c++", "node"},
		},
		{
			name: "aliases collapse to canonical name",
			text: "nodejs, react.js, k8s, golang",
			want: []string{"go", "kubernetes", "node", "react"},
		},
		{
			name: "punctuation is a token boundary",
			text: "python,docker;aws/terraform",
			want: []string{"aws", "docker", "python", "terraform"},
		},
		{
			name: "multi word alias",
			text: "5 years of machine learning on amazon web services",
			want: []string{"aws", "machine learning"},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sorted(Default().Extract(tt.text))
			if !reflect.DeepEqual(got, sorted(tt.want)) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractNoDuplicates(t *testing.T) {
	got := Default().Extract("node nodejs node.js node")
	if len(got) != 1 || got[0] != "node" {
		t.Fatalf("expected single canonical skill, got %v", got)
	}
}

func TestExtractIdempotent(t *testing.T) {
	text := "React, Node.js and SQL with Docker on AWS"
	first := sorted(Default().Extract(text))
	for i := 0; i < 10; i++ {
		again := sorted(Default().Extract(text))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, again, first)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NodeJS", "node"},
		{"node.js", "node"},
		{"K8S", "kubernetes"},
		{"Golang", "go"},
		{"COBOL", "cobol"}, // 词表外技能保留规范化文本
		{"  React  ", "react"},
	}
	for _, tt := range tests {
		if got := Default().Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalizeAllDeduplicates(t *testing.T) {
	got := Default().CanonicalizeAll([]string{"nodejs", "node.js", "React", "react"})
	want := []string{"node", "react"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CanonicalizeAll = %v, want %v", got, want)
	}
}
