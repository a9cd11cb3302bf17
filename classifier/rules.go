package classifier

import "github.com/cloudvet/cloudvet/types"

// Rule matches findings by service and title keywords. Rules are static
// configuration data; the table is evaluated in declaration order and
// never modified at runtime.
type Rule struct {
	Name       string
	Pillar     types.Pillar
	Services   []string // empty = any service
	Keywords   []string // matched case-insensitively against the title
	Confidence float64
}

// defaultRules is the built-in classification table. The most specific
// match wins; declaration order breaks ties.
var defaultRules = []Rule{
	{
		Name:       "public-exposure",
		Pillar:     types.PillarSecurity,
		Keywords:   []string{"public", "exposed", "open to the world", "0.0.0.0"},
		Confidence: 0.95,
	},
	{
		Name:       "encryption-at-rest",
		Pillar:     types.PillarSecurity,
		Keywords:   []string{"not encrypted", "unencrypted", "encryption disabled", "encryption"},
		Confidence: 0.95,
	},
	{
		Name:       "credential-hygiene",
		Pillar:     types.PillarSecurity,
		Services:   []string{"iam", "identity"},
		Keywords:   []string{"mfa", "access key", "password policy", "root", "credential"},
		Confidence: 0.9,
	},
	{
		Name:       "permissive-policy",
		Pillar:     types.PillarSecurity,
		Keywords:   []string{"wildcard", "overly permissive", "admin privileges", "policy allows"},
		Confidence: 0.85,
	},
	{
		Name:       "backup-coverage",
		Pillar:     types.PillarReliability,
		Keywords:   []string{"backup", "snapshot", "retention", "versioning"},
		Confidence: 0.9,
	},
	{
		Name:       "availability-zones",
		Pillar:     types.PillarReliability,
		Keywords:   []string{"multi-az", "single availability zone", "single point of failure", "replica"},
		Confidence: 0.9,
	},
	{
		Name:       "failover-readiness",
		Pillar:     types.PillarReliability,
		Services:   []string{"rds", "databases"},
		Keywords:   []string{"failover", "standby", "recovery"},
		Confidence: 0.85,
	},
	{
		Name:       "instance-generation",
		Pillar:     types.PillarPerformance,
		Services:   []string{"ec2", "compute"},
		Keywords:   []string{"previous generation", "old generation", "outdated instance type"},
		Confidence: 0.85,
	},
	{
		Name:       "throughput-limits",
		Pillar:     types.PillarPerformance,
		Keywords:   []string{"throughput", "iops", "latency", "burst credits", "throttl"},
		Confidence: 0.8,
	},
	{
		Name:       "idle-resources",
		Pillar:     types.PillarCost,
		Keywords:   []string{"idle", "unused", "unattached", "stopped", "orphaned"},
		Confidence: 0.9,
	},
	{
		Name:       "oversized-resources",
		Pillar:     types.PillarCost,
		Keywords:   []string{"oversized", "overprovisioned", "underutilized", "rightsizing"},
		Confidence: 0.85,
	},
	{
		Name:       "lifecycle-policy",
		Pillar:     types.PillarCost,
		Services:   []string{"s3", "storage"},
		Keywords:   []string{"lifecycle", "storage class", "infrequent access"},
		Confidence: 0.8,
	},
	{
		Name:       "tagging-discipline",
		Pillar:     types.PillarOperations,
		Keywords:   []string{"untagged", "missing tags", "missing required tags", "no owner tag", "tagging"},
		Confidence: 0.9,
	},
	{
		Name:       "observability-gaps",
		Pillar:     types.PillarOperations,
		Keywords:   []string{"logging disabled", "no monitoring", "monitoring disabled", "audit trail", "access logging"},
		Confidence: 0.85,
	},
	{
		Name:       "low-utilization-footprint",
		Pillar:     types.PillarSustainability,
		Keywords:   []string{"low utilization", "always on", "carbon", "energy"},
		Confidence: 0.75,
	},
}
