package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudvet/cloudvet/types"
)

func result(accountID string, status types.ScanStatus, findings ...types.Finding) types.ScanResult {
	return types.ScanResult{AccountID: accountID, Status: status, Findings: findings}
}

func finding(service, title string, severity types.Severity) types.Finding {
	return types.Finding{Service: service, Title: title, Severity: severity}
}

func TestDetectThresholdCeiling(t *testing.T) {
	// Signature in exactly 2 of 5 accounts (40%)
	batch := &types.ScanBatch{Results: []types.ScanResult{
		result("1", types.ScanSucceeded, finding("s3", "Bucket is public", types.SeverityCritical)),
		result("2", types.ScanSucceeded, finding("s3", "Bucket is public", types.SeverityHigh)),
		result("3", types.ScanSucceeded),
		result("4", types.ScanSucceeded),
		result("5", types.ScanSucceeded),
	}}

	// fraction 0.3: ceil(1.5) = 2, flagged
	patterns, err := Detect(batch, 0.3)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "s3|bucket is public", patterns[0].Signature)
	assert.Equal(t, []string{"1", "2"}, patterns[0].AccountIDs)
	assert.Equal(t, types.SeverityCritical, patterns[0].Severity, "highest severity wins")
	assert.Equal(t, 2, patterns[0].Count)

	// fraction 0.5: ceil(2.5) = 3, not flagged
	patterns, err = Detect(batch, 0.5)
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestDetectIgnoresFailedAccounts(t *testing.T) {
	shared := finding("iam", "User has no MFA device", types.SeverityHigh)
	batch := &types.ScanBatch{Results: []types.ScanResult{
		result("1", types.ScanSucceeded, shared),
		result("2", types.ScanFailed, shared), // failed: excluded from numerator and denominator
		result("3", types.ScanPartial, shared),
		result("4", types.ScanCancelled),
	}}

	// 2 assessed accounts out of 2 considered; fraction 1.0 needs both
	patterns, err := Detect(batch, 1.0)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, []string{"1", "3"}, patterns[0].AccountIDs)
}

func TestDetectNormalizesSignatures(t *testing.T) {
	batch := &types.ScanBatch{Results: []types.ScanResult{
		result("1", types.ScanSucceeded, finding("S3", "Bucket  Not   Encrypted", types.SeverityHigh)),
		result("2", types.ScanSucceeded, finding("s3", "bucket not encrypted", types.SeverityHigh)),
	}}

	patterns, err := Detect(batch, 1.0)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Len(t, patterns[0].AccountIDs, 2)
}

func TestDetectDuplicateFindingsCountOneAccountOnce(t *testing.T) {
	dup := finding("ec2", "Unattached volume", types.SeverityLow)
	batch := &types.ScanBatch{Results: []types.ScanResult{
		result("1", types.ScanSucceeded, dup, dup, dup),
		result("2", types.ScanSucceeded),
	}}

	// 3 occurrences but only 1 distinct account: below a 2-account threshold
	patterns, err := Detect(batch, 1.0)
	require.NoError(t, err)
	assert.Empty(t, patterns)

	patterns, err = Detect(batch, 0.5)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, 3, patterns[0].Count)
	assert.Equal(t, []string{"1"}, patterns[0].AccountIDs)
}

func TestDetectOrdering(t *testing.T) {
	batch := &types.ScanBatch{Results: []types.ScanResult{
		result("1", types.ScanSucceeded,
			finding("s3", "No lifecycle policy", types.SeverityLow),
			finding("rds", "Storage not encrypted", types.SeverityHigh),
		),
		result("2", types.ScanSucceeded,
			finding("s3", "No lifecycle policy", types.SeverityLow),
			finding("rds", "Storage not encrypted", types.SeverityHigh),
			finding("iam", "User has no MFA device", types.SeverityHigh),
		),
		result("3", types.ScanSucceeded,
			finding("iam", "User has no MFA device", types.SeverityHigh),
		),
	}}

	patterns, err := Detect(batch, 0.5)
	require.NoError(t, err)
	require.Len(t, patterns, 3)

	// Severity first; the two HIGH patterns tie, broken by earliest account
	assert.Equal(t, "rds|storage not encrypted", patterns[0].Signature)
	assert.Equal(t, "iam|user has no mfa device", patterns[1].Signature)
	assert.Equal(t, "s3|no lifecycle policy", patterns[2].Signature)
}

func TestDetectEmptyAndInvalid(t *testing.T) {
	patterns, err := Detect(&types.ScanBatch{}, 0.3)
	require.NoError(t, err)
	assert.Empty(t, patterns)

	_, err = Detect(&types.ScanBatch{}, -0.1)
	assert.Error(t, err)
	_, err = Detect(&types.ScanBatch{}, 1.5)
	assert.Error(t, err)
}
