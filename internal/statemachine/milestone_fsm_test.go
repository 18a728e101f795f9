package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apexmach/erp-api/internal/models"
)

func TestMilestoneComplete(t *testing.T) {
	ctx := context.Background()
	milestone := &models.ProjectMilestone{Status: models.MilestoneStatusPending}

	assert.NoError(t, NewMilestoneFSM(milestone).Complete(ctx))
	assert.Equal(t, models.MilestoneStatusCompleted, milestone.Status)

	// Completed is terminal
	err := NewMilestoneFSM(milestone).Complete(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "里程碑当前状态不允许完成")
	assert.Error(t, NewMilestoneFSM(milestone).Cancel(ctx))
}

func TestMilestoneCancel(t *testing.T) {
	ctx := context.Background()
	milestone := &models.ProjectMilestone{Status: models.MilestoneStatusPending}

	assert.NoError(t, NewMilestoneFSM(milestone).Cancel(ctx))
	assert.Equal(t, models.MilestoneStatusCancelled, milestone.Status)

	err := NewMilestoneFSM(milestone).Complete(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "里程碑当前状态不允许完成")
}
