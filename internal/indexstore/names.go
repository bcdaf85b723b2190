package indexstore

import "fmt"

// Alias returns the global alias name for a deployment prefix:
// "{prefix}-entities".
func Alias(prefix string) string {
	return fmt.Sprintf("%s-entities", prefix)
}

// IndexName returns the versioned index name for a dataset:
// "{prefix}-entities-{dataset}-{software-prefix}{version}".
func IndexName(prefix, dataset, softwarePrefix, version string) string {
	return fmt.Sprintf("%s-entities-%s-%s%s", prefix, dataset, softwarePrefix, version)
}

// DatasetMemberPrefix returns the prefix every versioned index name for
// dataset starts with, used to find and replace a dataset's current
// alias member during rollover.
func DatasetMemberPrefix(prefix, dataset string) string {
	return fmt.Sprintf("%s-entities-%s-", prefix, dataset)
}

// AuditLogIndex returns the audit-log index name for a deployment.
func AuditLogIndex(prefix string) string {
	return fmt.Sprintf("%s-entities-audit-log", prefix)
}
