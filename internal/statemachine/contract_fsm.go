package statemachine

import (
	"context"
	"fmt"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/looplab/fsm"
)

// ContractFSM wraps a contract with its approval state machine
type ContractFSM struct {
	contract *models.Contract
	fsm      *fsm.FSM
}

// NewContractFSM creates a new contract state machine
func NewContractFSM(contract *models.Contract) *ContractFSM {
	cfsm := &ContractFSM{
		contract: contract,
	}

	cfsm.fsm = fsm.NewFSM(
		contract.Status,
		fsm.Events{
			// draft/rejected → submitted
			{Name: "submit", Src: []string{models.ContractStatusDraft, models.ContractStatusRejected}, Dst: models.ContractStatusSubmitted},

			// submitted → approved
			{Name: "approve", Src: []string{models.ContractStatusSubmitted}, Dst: models.ContractStatusApproved},

			// submitted → rejected
			{Name: "reject", Src: []string{models.ContractStatusSubmitted}, Dst: models.ContractStatusRejected},

			// approved → active (project kicked off)
			{Name: "activate", Src: []string{models.ContractStatusApproved}, Dst: models.ContractStatusActive},

			// draft/submitted/rejected → cancelled
			{Name: "cancel", Src: []string{models.ContractStatusDraft, models.ContractStatusSubmitted, models.ContractStatusRejected}, Dst: models.ContractStatusCancelled},

			// active → closed
			{Name: "close", Src: []string{models.ContractStatusActive}, Dst: models.ContractStatusClosed},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Submit transitions contract to submitted state
func (c *ContractFSM) Submit(ctx context.Context) error {
	if !c.contract.MaySubmit() {
		return fmt.Errorf("合同当前状态不允许提交: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "submit"); err != nil {
		return fmt.Errorf("failed to submit contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Approve transitions contract to approved state
func (c *ContractFSM) Approve(ctx context.Context) error {
	if !c.contract.MayApprove() {
		return fmt.Errorf("合同当前状态不允许审批通过: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Reject transitions contract to rejected state
func (c *ContractFSM) Reject(ctx context.Context) error {
	if !c.contract.MayReject() {
		return fmt.Errorf("合同当前状态不允许驳回: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Activate transitions contract to active state
func (c *ContractFSM) Activate(ctx context.Context) error {
	if !c.contract.MayActivate() {
		return fmt.Errorf("合同当前状态不允许生效: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "activate"); err != nil {
		return fmt.Errorf("failed to activate contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Cancel transitions contract to cancelled state
func (c *ContractFSM) Cancel(ctx context.Context) error {
	if !c.contract.MayCancel() {
		return fmt.Errorf("合同当前状态不允许作废: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Close transitions contract to closed state
func (c *ContractFSM) Close(ctx context.Context) error {
	if !c.contract.MayClose() {
		return fmt.Errorf("合同当前状态不允许结案: %s", c.contract.Status)
	}

	if err := c.fsm.Event(ctx, "close"); err != nil {
		return fmt.Errorf("failed to close contract: %w", err)
	}

	c.contract.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *ContractFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *ContractFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
