package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/google/uuid"

	"github.com/cloudvet/cloudvet/orchestrator"
	"github.com/cloudvet/cloudvet/types"
)

// DatabaseScanner inspects RDS instances
type DatabaseScanner struct{}

// NewDatabaseScanner creates the RDS scanner
func NewDatabaseScanner() *DatabaseScanner { return &DatabaseScanner{} }

func (s *DatabaseScanner) Name() string { return "databases" }

// Scan walks all DB instances in the region
func (s *DatabaseScanner) Scan(ctx context.Context, session orchestrator.Session, region string) ([]types.Finding, error) {
	sess, err := awsSession(session)
	if err != nil {
		return nil, err
	}
	client := rds.NewFromConfig(sess.Config())

	var findings []types.Finding

	paginator := rds.NewDescribeDBInstancesPaginator(client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe DB instances: %w", err)
		}
		for _, db := range page.DBInstances {
			findings = append(findings, checkDBInstance(db)...)
		}
	}

	return findings, nil
}

// checkDBInstance evaluates one DB instance; pure over the SDK value
func checkDBInstance(db rdstypes.DBInstance) []types.Finding {
	var findings []types.Finding
	id := aws.ToString(db.DBInstanceIdentifier)

	if !aws.ToBool(db.StorageEncrypted) {
		findings = append(findings, databaseFinding(id, types.SeverityHigh,
			"Database storage not encrypted",
			"The instance stores data on unencrypted volumes.",
			"Snapshot the instance and restore it with encryption enabled."))
	}

	if aws.ToBool(db.PubliclyAccessible) {
		findings = append(findings, databaseFinding(id, types.SeverityCritical,
			"Database is publicly accessible",
			"The instance has a public endpoint reachable from outside the VPC.",
			"Disable public accessibility and route access through private subnets."))
	}

	if !aws.ToBool(db.MultiAZ) {
		findings = append(findings, databaseFinding(id, types.SeverityMedium,
			"Database not deployed multi-az",
			"A single availability zone failure takes the database offline.",
			"Enable Multi-AZ deployment for automatic failover."))
	}

	if aws.ToInt32(db.BackupRetentionPeriod) == 0 {
		findings = append(findings, databaseFinding(id, types.SeverityHigh,
			"Automated backups disabled",
			"Backup retention is zero, so no point-in-time recovery exists.",
			"Set a backup retention period of at least seven days."))
	}

	return findings
}

func databaseFinding(resource string, severity types.Severity, title, description, remediation string) types.Finding {
	return types.Finding{
		ID:          uuid.NewString(),
		Service:     "rds",
		Severity:    severity,
		Title:       title,
		Resource:    resource,
		Description: description,
		Remediation: remediation,
	}
}
