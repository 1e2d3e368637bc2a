package enums

// InstallationStatus tracks an installation request through scheduling.
type InstallationStatus string

const (
	InstallationStatusPending   InstallationStatus = "Pending"
	InstallationStatusScheduled InstallationStatus = "Scheduled"
	InstallationStatusCompleted InstallationStatus = "Completed"
)

var installationStatuses = set[InstallationStatus]{
	InstallationStatusPending,
	InstallationStatusScheduled,
	InstallationStatusCompleted,
}

func (s InstallationStatus) String() string { return string(s) }

func (s InstallationStatus) IsValid() bool { return installationStatuses.has(s) }

func ParseInstallationStatus(value string) (InstallationStatus, error) {
	return installationStatuses.parse("installation status", value, false)
}
