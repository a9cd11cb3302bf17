package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/uuid"

	"github.com/cloudvet/cloudvet/orchestrator"
	"github.com/cloudvet/cloudvet/types"
)

// previousGenerations are instance family prefixes superseded by newer
// hardware
var previousGenerations = []string{"t1.", "t2.", "m1.", "m3.", "m4.", "c1.", "c3.", "c4.", "r3.", "r4.", "i2."}

// ComputeScanner inspects EC2 instances and EBS volumes
type ComputeScanner struct{}

// NewComputeScanner creates the EC2 scanner
func NewComputeScanner() *ComputeScanner { return &ComputeScanner{} }

func (s *ComputeScanner) Name() string { return "compute" }

// Scan walks all instances and volumes in the region
func (s *ComputeScanner) Scan(ctx context.Context, session orchestrator.Session, region string) ([]types.Finding, error) {
	sess, err := awsSession(session)
	if err != nil {
		return nil, err
	}
	client := ec2.NewFromConfig(sess.Config())

	findings, err := s.scanInstances(ctx, client)
	if err != nil {
		return nil, err
	}

	volumeFindings, err := s.scanVolumes(ctx, client)
	if err != nil {
		return nil, err
	}

	return append(findings, volumeFindings...), nil
}

func (s *ComputeScanner) scanInstances(ctx context.Context, client *ec2.Client) ([]types.Finding, error) {
	var findings []types.Finding

	paginator := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				findings = append(findings, checkInstance(instance)...)
			}
		}
	}

	return findings, nil
}

// checkInstance evaluates one instance; pure over the SDK value
func checkInstance(instance ec2types.Instance) []types.Finding {
	var findings []types.Finding
	id := aws.ToString(instance.InstanceId)

	if instance.State != nil && instance.State.Name == ec2types.InstanceStateNameStopped {
		findings = append(findings, computeFinding(id, types.SeverityLow,
			"Instance stopped but not terminated",
			"Stopped instances keep their EBS volumes and still accrue storage cost.",
			"Terminate the instance or snapshot and delete its volumes."))
	}

	if isPreviousGeneration(string(instance.InstanceType)) {
		findings = append(findings, computeFinding(id, types.SeverityMedium,
			"Instance uses previous generation type",
			fmt.Sprintf("Instance type %s is superseded by newer generations with better price/performance.", instance.InstanceType),
			"Migrate to the equivalent current-generation instance family."))
	}

	if aws.ToString(instance.PublicIpAddress) != "" {
		findings = append(findings, computeFinding(id, types.SeverityHigh,
			"Instance has public IP address",
			"The instance is directly reachable from the internet.",
			"Move the instance behind a load balancer or NAT and drop the public IP."))
	}

	if !hasTag(instance.Tags, "Owner") {
		findings = append(findings, computeFinding(id, types.SeverityLow,
			"Instance missing required tags",
			"No Owner tag is set, so the instance cannot be attributed to a team.",
			"Tag the instance with Owner and Environment."))
	}

	return findings
}

func (s *ComputeScanner) scanVolumes(ctx context.Context, client *ec2.Client) ([]types.Finding, error) {
	var findings []types.Finding

	paginator := ec2.NewDescribeVolumesPaginator(client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe volumes: %w", err)
		}
		for _, volume := range page.Volumes {
			if volume.State == ec2types.VolumeStateAvailable {
				findings = append(findings, computeFinding(aws.ToString(volume.VolumeId), types.SeverityMedium,
					"Unattached volume",
					"The volume is not attached to any instance but is still billed.",
					"Snapshot the volume if needed, then delete it."))
			}
		}
	}

	return findings, nil
}

func isPreviousGeneration(instanceType string) bool {
	for _, prefix := range previousGenerations {
		if strings.HasPrefix(instanceType, prefix) {
			return true
		}
	}
	return false
}

func hasTag(tags []ec2types.Tag, key string) bool {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == key {
			return true
		}
	}
	return false
}

func computeFinding(resource string, severity types.Severity, title, description, remediation string) types.Finding {
	return types.Finding{
		ID:          uuid.NewString(),
		Service:     "ec2",
		Severity:    severity,
		Title:       title,
		Resource:    resource,
		Description: description,
		Remediation: remediation,
	}
}
