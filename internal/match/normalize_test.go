package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Senior Software Engineer", "SENIOR SOFTWARE ENGINEER"},
		{"  senior software engineer  ", "SENIOR SOFTWARE ENGINEER"},
		{"Software Engineer (m/w/d)", "SOFTWARE ENGINEER"},
		{"Software Engineer [Remote]", "SOFTWARE ENGINEER"},
		{"Data Analyst - Remote", "DATA ANALYST"},
		{"Ingénieur Logiciel", "INGENIEUR LOGICIEL"},
		{"DevOps/SRE Engineer", "DEVOPS SRE ENGINEER"},
		{"Backend   Developer", "BACKEND DEVELOPER"},
		{"", ""},
		{"(hybrid)", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Senior Software Engineer", "software engineer"))
	assert.True(t, ContainsFold("engineer", "Senior Software Engineer (Remote)"),
		"substring works in both directions")
	assert.False(t, ContainsFold("Accountant", "Software Engineer"))
	assert.False(t, ContainsFold("", "engineer"))
	assert.False(t, ContainsFold("engineer", ""))
}
