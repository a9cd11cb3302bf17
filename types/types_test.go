package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Equal(t, 0, Severity("BOGUS").Rank())
	assert.False(t, Severity("BOGUS").Valid())
}

func TestPillarValid(t *testing.T) {
	require.Len(t, Pillars, 6)
	for _, p := range Pillars {
		assert.True(t, p.Valid())
	}
	assert.False(t, Pillar("governance").Valid())
}

func TestParseDepth(t *testing.T) {
	tests := []struct {
		input   string
		want    ScanDepth
		wantErr bool
	}{
		{"quick", DepthQuick, false},
		{"standard", DepthStandard, false},
		{"comprehensive", DepthComprehensive, false},
		{"deep", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDepth(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestFindingSignature(t *testing.T) {
	a := Finding{Service: "S3", Title: "Bucket  not\tencrypted"}
	b := Finding{Service: "s3", Title: "bucket not encrypted"}
	assert.Equal(t, a.Signature(), b.Signature())
	assert.Equal(t, "s3|bucket not encrypted", a.Signature())
}

func TestScanStatusAssessed(t *testing.T) {
	assert.True(t, ScanSucceeded.Assessed())
	assert.True(t, ScanPartial.Assessed())
	assert.False(t, ScanFailed.Assessed())
	assert.False(t, ScanCancelled.Assessed())
}

func TestBatchAssessed(t *testing.T) {
	batch := &ScanBatch{
		Results: []ScanResult{
			{AccountID: "1", Status: ScanSucceeded},
			{AccountID: "2", Status: ScanFailed},
			{AccountID: "3", Status: ScanPartial},
			{AccountID: "4", Status: ScanCancelled},
		},
	}

	assessed := batch.Assessed()
	require.Len(t, assessed, 2)
	assert.Equal(t, "1", assessed[0].AccountID)
	assert.Equal(t, "3", assessed[1].AccountID)
}
