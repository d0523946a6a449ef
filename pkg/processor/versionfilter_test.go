package processor

import (
	"testing"

	"github.com/engagic/core/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestFilterVersions_KeepsHighestPerBaseName(t *testing.T) {
	in := []models.Attachment{
		{URL: "a", Name: "Staff Report Ver1"},
		{URL: "b", Name: "Staff Report Ver3"},
		{URL: "c", Name: "Staff Report Ver2"},
		{URL: "d", Name: "Exhibit A"},
	}
	out := FilterVersions(in)

	names := make(map[string]bool)
	for _, a := range out {
		names[a.Name] = true
	}
	assert.True(t, names["Staff Report Ver3"])
	assert.False(t, names["Staff Report Ver1"])
	assert.False(t, names["Staff Report Ver2"])
	assert.True(t, names["Exhibit A"])
	assert.Len(t, out, 2)
}

func TestFilterVersions_NoVersionSuffixUnaffected(t *testing.T) {
	in := []models.Attachment{{URL: "a", Name: "Ordinance 2026-01"}, {URL: "b", Name: "Resolution 44"}}
	out := FilterVersions(in)
	assert.Len(t, out, 2)
}
