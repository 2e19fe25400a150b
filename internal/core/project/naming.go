package project

import (
	"fmt"
	"strings"
)

// =============================================================================
// Resource Naming Functions
// =============================================================================

// Platform is the prefix shared by every runtime resource this orchestrator
// creates. The proxy and teardown paths rely on these names, so they must be
// pure functions of their inputs.
const Platform = "auraops"

// PlatformNetwork is the shared network containers join so the reverse proxy
// can reach them by container name.
const PlatformNetwork = Platform + "-network"

// ProxyContainer is the name of the reverse proxy's runtime container.
const ProxyContainer = Platform + "-proxy"

// LabelProjectID marks a runtime resource as owned by a project, so teardown
// enumerates by label instead of parsing names.
const LabelProjectID = "auraops.project_id"

// LabelServiceName records the compose service a container was created for.
const LabelServiceName = "auraops.service_name"

// AppContainerName names the container on the direct-run paths
// (image, dockerfile, static_build).
//
// Example:
//
//	AppContainerName(42) // returns "auraops-app-42"
func AppContainerName(projectID int64) string {
	return fmt.Sprintf("%s-app-%d", Platform, projectID)
}

// ServiceContainerName names the container for a managed service deployment.
func ServiceContainerName(projectID int64) string {
	return fmt.Sprintf("%s-service-%d", Platform, projectID)
}

// BuildContainerName names the ephemeral static-site build container.
func BuildContainerName(projectID int64) string {
	return fmt.Sprintf("%s-build-%d", Platform, projectID)
}

// ComposeContainerName names a compose service's container.
//
// Example:
//
//	ComposeContainerName(42, "db") // returns "auraops-42-db"
func ComposeContainerName(projectID int64, serviceName string) string {
	return fmt.Sprintf("%s-%d-%s", Platform, projectID, serviceName)
}

// NetworkName names a compose project's private network.
func NetworkName(projectID int64) string {
	return fmt.Sprintf("%s-%d-network", Platform, projectID)
}

// VolumeName names a compose or managed-service named volume.
func VolumeName(projectID int64, volumeName string) string {
	return fmt.Sprintf("%s-%d-%s", Platform, projectID, volumeName)
}

// ImageTag names the locally built image on the dockerfile path. Image
// repositories must be lowercase.
func ImageTag(projectName string) string {
	return fmt.Sprintf("%s-%s:latest", Platform, strings.ToLower(projectName))
}

// StaticOutputDir is where build pipelines place static bundles for the
// proxy to serve.
func StaticOutputDir(root string, projectID int64) string {
	return fmt.Sprintf("%s/project-%d", root, projectID)
}

// ConfigFileName names the per-project reverse proxy config file.
func ConfigFileName(projectID int64) string {
	return fmt.Sprintf("app-%d.conf", projectID)
}
