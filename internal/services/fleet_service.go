package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.temporal.io/api/workflowservice/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/checkout-backend/internal/checkout"
	"github.com/yungbote/checkout-backend/internal/domain"
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
	"github.com/yungbote/checkout-backend/internal/temporalx"
)

const fleetQueryConcurrency = 8

// FleetService surveys running purchase instances for the control plane.
type FleetService interface {
	ListInstances(ctx context.Context) ([]domain.InstanceHealth, error)
}

type fleetService struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	namespace string
}

func NewFleetService(log *logger.Logger, tc temporalsdkclient.Client) (FleetService, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	return &fleetService{
		log:       log.With("service", "FleetService"),
		tc:        tc,
		namespace: temporalx.LoadConfig().Namespace,
	}, nil
}

func (s *fleetService) ListInstances(ctx context.Context) ([]domain.InstanceHealth, error) {
	query := fmt.Sprintf("WorkflowType = %q AND ExecutionStatus = 'Running'", checkout.WorkflowName)

	var workflowIDs []string
	var nextPage []byte
	for {
		resp, err := s.tc.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
			Namespace:     s.namespace,
			PageSize:      100,
			NextPageToken: nextPage,
			Query:         query,
		})
		if err != nil {
			return nil, fmt.Errorf("list purchase workflows: %w", err)
		}
		for _, info := range resp.GetExecutions() {
			if exec := info.GetExecution(); exec != nil {
				workflowIDs = append(workflowIDs, exec.GetWorkflowId())
			}
		}
		nextPage = resp.GetNextPageToken()
		if len(nextPage) == 0 {
			break
		}
	}

	out := make([]domain.InstanceHealth, 0, len(workflowIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fleetQueryConcurrency)
	for _, wfID := range workflowIDs {
		wfID := wfID
		g.Go(func() error {
			val, err := s.tc.QueryWorkflow(gctx, wfID, "", checkout.QueryState)
			if err != nil {
				// The instance may have completed between list and query.
				s.log.Warn("Instance state query failed", "workflow_id", wfID, "error", err)
				return nil
			}
			var snap domain.CartSnapshot
			if err := val.Get(&snap); err != nil {
				s.log.Warn("Instance state decode failed", "workflow_id", wfID, "error", err)
				return nil
			}
			mu.Lock()
			out = append(out, domain.InstanceHealth{
				OwnerID:    checkout.OwnerFromWorkflowID(wfID),
				WorkflowID: wfID,
				State:      snap.State,
				Total:      snap.Total,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].WorkflowID < out[j].WorkflowID })
	return out, nil
}
