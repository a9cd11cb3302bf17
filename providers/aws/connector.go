// Package aws provides the AWS account connector and service scanners.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/cloudvet/cloudvet/orchestrator"
	"github.com/cloudvet/cloudvet/telemetry"
	"github.com/cloudvet/cloudvet/types"
)

// Session is an authenticated AWS session for one account
type Session struct {
	cfg       aws.Config
	accountID string
	region    string
}

// AccountID returns the verified account ID
func (s *Session) AccountID() string { return s.accountID }

// Region returns the region the session was opened in
func (s *Session) Region() string { return s.region }

// Config returns the underlying SDK config for building service clients
func (s *Session) Config() aws.Config { return s.cfg }

// Connector acquires AWS sessions per account using shared-config
// profiles named after the account. The caller identity is verified
// against the requested account before any scanner runs.
type Connector struct {
	region string
	logger *telemetry.Logger
}

// NewConnector creates a connector for the given region
func NewConnector(region string) *Connector {
	return &Connector{
		region: region,
		logger: telemetry.NewLogger("connector"),
	}
}

// Connect loads credentials for the account's profile and verifies the
// resulting identity. Any failure here fails the whole account scan.
func (c *Connector) Connect(ctx context.Context, account types.AccountRef) (orchestrator.Session, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.region),
	}
	if account.Name != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(account.Name))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for %s: %w", account.Name, err)
	}

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to verify identity for %s: %w", account.Name, err)
	}

	callerAccount := aws.ToString(identity.Account)
	if account.ID != "" && callerAccount != account.ID {
		return nil, fmt.Errorf("profile %s resolves to account %s, expected %s",
			account.Name, callerAccount, account.ID)
	}

	c.logger.WithContext(ctx).Debug().
		Str("account_id", callerAccount).
		Str("region", c.region).
		Msg("session established")

	return &Session{cfg: cfg, accountID: callerAccount, region: c.region}, nil
}

// awsSession unwraps an orchestrator session into an AWS session
func awsSession(session orchestrator.Session) (*Session, error) {
	s, ok := session.(*Session)
	if !ok {
		return nil, fmt.Errorf("session is not an AWS session")
	}
	return s, nil
}
