package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/google/uuid"

	"github.com/cloudvet/cloudvet/orchestrator"
	"github.com/cloudvet/cloudvet/types"
)

// maxAccessKeyAge is the rotation threshold for user access keys
const maxAccessKeyAge = 90 * 24 * time.Hour

// IdentityScanner inspects IAM account hygiene
type IdentityScanner struct{}

// NewIdentityScanner creates the IAM scanner
func NewIdentityScanner() *IdentityScanner { return &IdentityScanner{} }

func (s *IdentityScanner) Name() string { return "identity" }

// Scan checks the account password policy, root access keys, and every
// user's MFA and access key age. IAM is global; region is ignored.
func (s *IdentityScanner) Scan(ctx context.Context, session orchestrator.Session, _ string) ([]types.Finding, error) {
	sess, err := awsSession(session)
	if err != nil {
		return nil, err
	}
	client := iam.NewFromConfig(sess.Config())

	var findings []types.Finding

	if _, err := client.GetAccountPasswordPolicy(ctx, &iam.GetAccountPasswordPolicyInput{}); err != nil {
		findings = append(findings, identityFinding("account", types.SeverityMedium,
			"No account password policy configured",
			"IAM users can set weak passwords without complexity or rotation requirements.",
			"Define an account password policy with length, complexity, and rotation rules."))
	}

	findings = append(findings, s.checkRootAccessKeys(ctx, client)...)

	userFindings, err := s.scanUsers(ctx, client)
	if err != nil {
		return nil, err
	}

	return append(findings, userFindings...), nil
}

func (s *IdentityScanner) checkRootAccessKeys(ctx context.Context, client *iam.Client) []types.Finding {
	summary, err := client.GetAccountSummary(ctx, &iam.GetAccountSummaryInput{})
	if err != nil {
		return nil
	}
	if summary.SummaryMap["AccountAccessKeysPresent"] > 0 {
		return []types.Finding{identityFinding("root", types.SeverityCritical,
			"Root account has active access keys",
			"Programmatic root credentials bypass all IAM guardrails.",
			"Delete the root access keys and use IAM roles instead.")}
	}
	return nil
}

func (s *IdentityScanner) scanUsers(ctx context.Context, client *iam.Client) ([]types.Finding, error) {
	var findings []types.Finding

	paginator := iam.NewListUsersPaginator(client, &iam.ListUsersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list IAM users: %w", err)
		}
		for _, user := range page.Users {
			findings = append(findings, s.checkUser(ctx, client, user)...)
		}
	}

	return findings, nil
}

func (s *IdentityScanner) checkUser(ctx context.Context, client *iam.Client, user iamtypes.User) []types.Finding {
	var findings []types.Finding
	name := aws.ToString(user.UserName)

	mfa, err := client.ListMFADevices(ctx, &iam.ListMFADevicesInput{UserName: user.UserName})
	if err == nil && len(mfa.MFADevices) == 0 {
		findings = append(findings, identityFinding(name, types.SeverityHigh,
			"User has no MFA device",
			"The user can sign in with a password alone.",
			"Require a virtual or hardware MFA device for this user."))
	}

	keys, err := client.ListAccessKeys(ctx, &iam.ListAccessKeysInput{UserName: user.UserName})
	if err != nil {
		return findings
	}
	for _, key := range keys.AccessKeyMetadata {
		if staleAccessKey(key, time.Now()) {
			findings = append(findings, identityFinding(name, types.SeverityMedium,
				"Access key not rotated in 90 days",
				fmt.Sprintf("Access key %s exceeds the rotation threshold.", aws.ToString(key.AccessKeyId)),
				"Rotate the access key and remove the old credential."))
		}
	}

	return findings
}

// staleAccessKey reports whether an active key is past the rotation
// threshold; pure over the SDK value
func staleAccessKey(key iamtypes.AccessKeyMetadata, now time.Time) bool {
	if key.Status != iamtypes.StatusTypeActive || key.CreateDate == nil {
		return false
	}
	return now.Sub(*key.CreateDate) > maxAccessKeyAge
}

func identityFinding(resource string, severity types.Severity, title, description, remediation string) types.Finding {
	return types.Finding{
		ID:          uuid.NewString(),
		Service:     "iam",
		Severity:    severity,
		Title:       title,
		Resource:    resource,
		Description: description,
		Remediation: remediation,
	}
}
