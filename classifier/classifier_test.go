package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudvet/cloudvet/types"
)

func TestClassifyAlwaysReturnsKnownPillar(t *testing.T) {
	c := New()

	findings := []types.Finding{
		{Service: "s3", Title: "Bucket is public"},
		{Service: "rds", Title: "No backup retention configured"},
		{Service: "ec2", Title: "Instance uses previous generation type"},
		{Service: "ec2", Title: "Unattached volume"},
		{Service: "iam", Title: "User has no MFA device"},
		{Service: "whatever", Title: "something nobody wrote a rule for"},
		{Service: "", Title: ""},
	}

	for _, f := range findings {
		cl := c.Classify(f)
		assert.True(t, cl.Pillar.Valid(), "finding %q got pillar %q", f.Title, cl.Pillar)
		assert.GreaterOrEqual(t, cl.Confidence, 0.0)
		assert.LessOrEqual(t, cl.Confidence, 1.0)
		assert.NotEmpty(t, cl.Rule)
	}
}

func TestClassifyFallback(t *testing.T) {
	c := New()

	cl := c.Classify(types.Finding{Service: "quantum", Title: "flux capacitor misaligned"})
	assert.Equal(t, FallbackRule, cl.Rule)
	assert.Equal(t, 0.0, cl.Confidence)
	assert.True(t, cl.Pillar.Valid())
}

func TestClassifyPreassignedPillarWins(t *testing.T) {
	c := New()

	cl := c.Classify(types.Finding{
		Service: "s3",
		Title:   "Bucket is public", // would match security
		Pillar:  types.PillarCost,
	})
	assert.Equal(t, types.PillarCost, cl.Pillar)
	assert.Equal(t, 1.0, cl.Confidence)
	assert.Equal(t, PreassignedRule, cl.Rule)
}

func TestClassifyInvalidPreassignmentIgnored(t *testing.T) {
	c := New()

	cl := c.Classify(types.Finding{
		Service: "s3",
		Title:   "Bucket is public",
		Pillar:  types.Pillar("not-a-pillar"),
	})
	assert.Equal(t, types.PillarSecurity, cl.Pillar)
	assert.Equal(t, "public-exposure", cl.Rule)
}

func TestClassifyMostSpecificRuleWins(t *testing.T) {
	rules := []Rule{
		{Name: "generic", Pillar: types.PillarCost, Keywords: []string{"unused"}, Confidence: 0.5},
		{Name: "scoped", Pillar: types.PillarReliability, Services: []string{"rds"}, Keywords: []string{"unused"}, Confidence: 0.8},
	}
	c := NewWithRules(rules)

	// Service-scoped rule is more specific even though declared later
	cl := c.Classify(types.Finding{Service: "rds", Title: "unused instance"})
	assert.Equal(t, "scoped", cl.Rule)

	// Without the service match only the generic rule applies
	cl = c.Classify(types.Finding{Service: "ec2", Title: "unused instance"})
	assert.Equal(t, "generic", cl.Rule)
}

func TestClassifyDeclarationOrderBreaksTies(t *testing.T) {
	rules := []Rule{
		{Name: "first", Pillar: types.PillarSecurity, Keywords: []string{"alpha"}, Confidence: 0.6},
		{Name: "second", Pillar: types.PillarCost, Keywords: []string{"alpha"}, Confidence: 0.9},
	}
	c := NewWithRules(rules)

	cl := c.Classify(types.Finding{Service: "x", Title: "alpha issue"})
	assert.Equal(t, "first", cl.Rule)
	assert.Equal(t, types.PillarSecurity, cl.Pillar)
}

func TestClassifyDeterministic(t *testing.T) {
	c := New()
	f := types.Finding{Service: "s3", Title: "Bucket not encrypted at rest"}

	first := c.Classify(f)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, c.Classify(f))
	}
}
