package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailLocalPart(t *testing.T) {
	assert.Equal(t, "an.nguyen", emailLocalPart("Nguyen Van An"))
	assert.Equal(t, "binh", emailLocalPart("Binh"))
	assert.Equal(t, "guard", emailLocalPart("  "))
}

func TestGenerateRandomGuard(t *testing.T) {
	g := GenerateRandomGuard("example.vn")

	assert.True(t, strings.HasPrefix(g.EmployeeCode, "G"))
	assert.Len(t, g.EmployeeCode, 7)
	assert.True(t, strings.HasSuffix(g.Email, "."+strings.ToLower(g.EmployeeCode)+"@example.vn"))
	assert.Len(t, strings.Fields(g.FullName), 3)
	assert.True(t, g.IsActive)
}

func TestGenerateRandomSubset(t *testing.T) {
	assert.Nil(t, GenerateRandomSubset([]int64{}))

	src := []int64{1, 2, 3, 4, 5}
	for range 20 {
		sub := GenerateRandomSubset(src)
		assert.NotEmpty(t, sub)
		assert.LessOrEqual(t, len(sub), len(src))
		for _, v := range sub {
			assert.Contains(t, src, v)
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, src, "source must not be reordered")
}

func TestGenerateRandomApplicableDays(t *testing.T) {
	for range 20 {
		days := GenerateRandomApplicableDays()
		assert.NotEmpty(t, days)
		seen := make(map[int]bool)
		for _, d := range days {
			assert.GreaterOrEqual(t, d, 1)
			assert.LessOrEqual(t, d, 7)
			assert.False(t, seen[d])
			seen[d] = true
		}
	}
}
