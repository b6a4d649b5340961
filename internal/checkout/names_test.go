package checkout

import "testing"

func TestWorkflowIDRoundTrip(t *testing.T) {
	wfID := WorkflowID("user-42")
	if wfID != "terminos-workflow-user-42" {
		t.Fatalf("workflow id: got=%s", wfID)
	}
	if got := OwnerFromWorkflowID(wfID); got != "user-42" {
		t.Fatalf("owner: want=user-42 got=%s", got)
	}
	if got := OwnerFromWorkflowID("otra-cosa"); got != "" {
		t.Fatalf("foreign id must map to empty owner, got=%s", got)
	}
	if got := OwnerFromWorkflowID("terminos-workflow-"); got != "" {
		t.Fatalf("empty owner must map to empty string, got=%s", got)
	}
}
