package github

import (
	"context"
	"strconv"

	gh "github.com/google/go-github/v74/github"
)

// DispatchWorkflow triggers a workflow_dispatch event. Numeric identifiers
// address the workflow by ID, anything else by file name.
func (c *RESTClient) DispatchWorkflow(ctx context.Context, dispatch WorkflowDispatch) error {
	event := gh.CreateWorkflowDispatchEventRequest{
		Ref:    dispatch.Ref,
		Inputs: dispatch.Inputs,
	}

	var (
		resp *gh.Response
		err  error
	)
	if id, convErr := strconv.ParseInt(dispatch.Workflow, 10, 64); convErr == nil {
		resp, err = c.client.Actions.CreateWorkflowDispatchEventByID(ctx, dispatch.Owner, dispatch.Repo, id, event)
	} else {
		resp, err = c.client.Actions.CreateWorkflowDispatchEventByFileName(ctx, dispatch.Owner, dispatch.Repo, dispatch.Workflow, event)
	}
	if err != nil {
		return classify("dispatching workflow "+dispatch.Workflow, resp, err)
	}
	return nil
}
