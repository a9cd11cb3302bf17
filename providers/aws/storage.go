package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/cloudvet/cloudvet/orchestrator"
	"github.com/cloudvet/cloudvet/types"
)

// StorageScanner inspects S3 buckets
type StorageScanner struct{}

// NewStorageScanner creates the S3 scanner
func NewStorageScanner() *StorageScanner { return &StorageScanner{} }

func (s *StorageScanner) Name() string { return "storage" }

// Scan lists all buckets and checks encryption, public access,
// versioning, and lifecycle configuration
func (s *StorageScanner) Scan(ctx context.Context, session orchestrator.Session, region string) ([]types.Finding, error) {
	sess, err := awsSession(session)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(sess.Config())

	output, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 buckets: %w", err)
	}

	var findings []types.Finding
	for _, bucket := range output.Buckets {
		findings = append(findings, s.checkBucket(ctx, client, aws.ToString(bucket.Name))...)
	}
	return findings, nil
}

func (s *StorageScanner) checkBucket(ctx context.Context, client *s3.Client, bucket string) []types.Finding {
	var findings []types.Finding

	if _, err := client.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{Bucket: aws.String(bucket)}); err != nil {
		findings = append(findings, bucketFinding(bucket, types.SeverityHigh,
			"Bucket not encrypted at rest",
			"Default server-side encryption is not configured for this bucket.",
			"Enable default SSE-S3 or SSE-KMS encryption on the bucket."))
	}

	if !publicAccessBlocked(ctx, client, bucket) {
		findings = append(findings, bucketFinding(bucket, types.SeverityCritical,
			"Bucket allows public access",
			"Public access block is missing or incomplete, so objects may be exposed.",
			"Enable all four public access block settings on the bucket."))
	}

	versioning, err := client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: aws.String(bucket)})
	if err != nil || versioning.Status != s3types.BucketVersioningStatusEnabled {
		findings = append(findings, bucketFinding(bucket, types.SeverityMedium,
			"Bucket versioning disabled",
			"Without versioning, deleted or overwritten objects cannot be recovered.",
			"Enable versioning to protect against accidental deletion."))
	}

	if _, err := client.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{Bucket: aws.String(bucket)}); err != nil {
		findings = append(findings, bucketFinding(bucket, types.SeverityLow,
			"No lifecycle policy configured",
			"Objects never transition to cheaper storage classes or expire.",
			"Add a lifecycle policy moving cold data to infrequent access tiers."))
	}

	return findings
}

// publicAccessBlocked reports whether all four public access block
// settings are enabled for the bucket
func publicAccessBlocked(ctx context.Context, client *s3.Client, bucket string) bool {
	output, err := client.GetPublicAccessBlock(ctx, &s3.GetPublicAccessBlockInput{Bucket: aws.String(bucket)})
	if err != nil || output.PublicAccessBlockConfiguration == nil {
		return false
	}
	cfg := output.PublicAccessBlockConfiguration
	return aws.ToBool(cfg.BlockPublicAcls) &&
		aws.ToBool(cfg.BlockPublicPolicy) &&
		aws.ToBool(cfg.IgnorePublicAcls) &&
		aws.ToBool(cfg.RestrictPublicBuckets)
}

func bucketFinding(bucket string, severity types.Severity, title, description, remediation string) types.Finding {
	return types.Finding{
		ID:          uuid.NewString(),
		Service:     "s3",
		Severity:    severity,
		Title:       title,
		Resource:    bucket,
		Description: description,
		Remediation: remediation,
	}
}
