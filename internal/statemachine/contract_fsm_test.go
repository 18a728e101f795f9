package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apexmach/erp-api/internal/models"
)

func TestContractApprovalFlow(t *testing.T) {
	ctx := context.Background()
	contract := &models.Contract{Status: models.ContractStatusDraft}

	cfsm := NewContractFSM(contract)
	assert.NoError(t, cfsm.Submit(ctx))
	assert.Equal(t, models.ContractStatusSubmitted, contract.Status)

	assert.NoError(t, NewContractFSM(contract).Approve(ctx))
	assert.Equal(t, models.ContractStatusApproved, contract.Status)

	assert.NoError(t, NewContractFSM(contract).Activate(ctx))
	assert.Equal(t, models.ContractStatusActive, contract.Status)

	assert.NoError(t, NewContractFSM(contract).Close(ctx))
	assert.Equal(t, models.ContractStatusClosed, contract.Status)
}

func TestContractRejectAndResubmit(t *testing.T) {
	ctx := context.Background()
	contract := &models.Contract{Status: models.ContractStatusSubmitted}

	assert.NoError(t, NewContractFSM(contract).Reject(ctx))
	assert.Equal(t, models.ContractStatusRejected, contract.Status)

	// A rejected contract can be reworked and submitted again
	assert.NoError(t, NewContractFSM(contract).Submit(ctx))
	assert.Equal(t, models.ContractStatusSubmitted, contract.Status)
}

func TestContractInvalidTransitions(t *testing.T) {
	ctx := context.Background()

	draft := &models.Contract{Status: models.ContractStatusDraft}
	err := NewContractFSM(draft).Approve(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "合同当前状态不允许")
	assert.Equal(t, models.ContractStatusDraft, draft.Status)

	active := &models.Contract{Status: models.ContractStatusActive}
	assert.Error(t, NewContractFSM(active).Cancel(ctx))
	assert.Error(t, NewContractFSM(active).Submit(ctx))

	closed := &models.Contract{Status: models.ContractStatusClosed}
	assert.Error(t, NewContractFSM(closed).Activate(ctx))
	assert.Error(t, NewContractFSM(closed).Close(ctx))
}

func TestContractCancelPaths(t *testing.T) {
	ctx := context.Background()

	for _, status := range []string{
		models.ContractStatusDraft,
		models.ContractStatusSubmitted,
		models.ContractStatusRejected,
	} {
		contract := &models.Contract{Status: status}
		assert.NoError(t, NewContractFSM(contract).Cancel(ctx), "cancel from %s", status)
		assert.Equal(t, models.ContractStatusCancelled, contract.Status)
	}
}
