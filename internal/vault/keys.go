package vault

import "fmt"

// DocumentKey is the canonical key for a generated project document.
func DocumentKey(projectID, name string) string {
	return fmt.Sprintf("projects/%s/documents/%s", projectID, name)
}

// ExportKey is the canonical key for a data export of one project.
func ExportKey(projectID, name string) string {
	return fmt.Sprintf("projects/%s/exports/%s", projectID, name)
}

// EvidenceKey is the canonical key for compliance checklist evidence.
func EvidenceKey(projectID, certID, itemID string) string {
	return fmt.Sprintf("projects/%s/compliance/%s/%s", projectID, certID, itemID)
}

// ProjectPrefix lists everything stored for one project.
func ProjectPrefix(projectID string) string {
	return fmt.Sprintf("projects/%s/", projectID)
}
