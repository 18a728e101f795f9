package statemachine

import (
	"context"
	"fmt"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/looplab/fsm"
)

// MilestoneFSM wraps a project milestone with its lifecycle state machine
type MilestoneFSM struct {
	milestone *models.ProjectMilestone
	fsm       *fsm.FSM
}

// NewMilestoneFSM creates a new milestone state machine
func NewMilestoneFSM(milestone *models.ProjectMilestone) *MilestoneFSM {
	mfsm := &MilestoneFSM{
		milestone: milestone,
	}

	mfsm.fsm = fsm.NewFSM(
		milestone.Status,
		fsm.Events{
			{Name: "complete", Src: []string{models.MilestoneStatusPending}, Dst: models.MilestoneStatusCompleted},
			{Name: "cancel", Src: []string{models.MilestoneStatusPending}, Dst: models.MilestoneStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return mfsm
}

// Complete transitions milestone to completed state
func (m *MilestoneFSM) Complete(ctx context.Context) error {
	if !m.milestone.MayComplete() {
		return fmt.Errorf("里程碑当前状态不允许完成: %s", m.milestone.Status)
	}

	if err := m.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete milestone: %w", err)
	}

	m.milestone.Status = m.fsm.Current()
	return nil
}

// Cancel transitions milestone to cancelled state
func (m *MilestoneFSM) Cancel(ctx context.Context) error {
	if !m.milestone.MayCancel() {
		return fmt.Errorf("里程碑当前状态不允许取消: %s", m.milestone.Status)
	}

	if err := m.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel milestone: %w", err)
	}

	m.milestone.Status = m.fsm.Current()
	return nil
}

// Current returns the current state
func (m *MilestoneFSM) Current() string {
	return m.fsm.Current()
}
