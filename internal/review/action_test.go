package review

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/modboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) UpdateStatus(ctx context.Context, id int64, update models.StatusUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    models.Status
		wantErr bool
	}{
		{"approved", models.StatusApproved, false},
		{"Approve", models.StatusApproved, false},
		{" rejected ", models.StatusRejected, false},
		{"reject", models.StatusRejected, false},
		{"pending", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidStatus, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestStatusAction_Submit_Confirmed(t *testing.T) {
	ctx := context.Background()
	confirmer := new(MockConfirmer)
	updater := new(MockUpdater)
	confirmer.On("Confirm", ctx, "Mark content 12 as approved?").Return(true, nil)
	updater.On("UpdateStatus", ctx, int64(12), models.StatusUpdate{Status: models.StatusApproved, Notes: "looks fine"}).Return(nil)

	err := NewStatusAction(confirmer, updater).Submit(ctx, 12, models.StatusApproved, "looks fine")

	require.NoError(t, err)
	confirmer.AssertExpectations(t)
	updater.AssertExpectations(t)
}

func TestStatusAction_Submit_NotConfirmedSendsNothing(t *testing.T) {
	ctx := context.Background()
	confirmer := new(MockConfirmer)
	updater := new(MockUpdater)
	confirmer.On("Confirm", ctx, mock.Anything).Return(false, nil)

	err := NewStatusAction(confirmer, updater).Submit(ctx, 12, models.StatusRejected, "")

	assert.ErrorIs(t, err, ErrNotConfirmed)
	updater.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusAction_Submit_InvalidStatus(t *testing.T) {
	confirmer := new(MockConfirmer)
	updater := new(MockUpdater)

	err := NewStatusAction(confirmer, updater).Submit(context.Background(), 1, models.StatusPending, "")

	assert.ErrorIs(t, err, ErrInvalidStatus)
	confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	updater.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusAction_Submit_NilConfirmer(t *testing.T) {
	updater := new(MockUpdater)
	err := NewStatusAction(nil, updater).Submit(context.Background(), 1, models.StatusApproved, "")
	assert.ErrorIs(t, err, ErrNotConfirmed)
}

func TestStatusAction_Submit_UpstreamError(t *testing.T) {
	ctx := context.Background()
	updater := new(MockUpdater)
	boom := errors.New("boom")
	updater.On("UpdateStatus", ctx, int64(3), mock.Anything).Return(boom)

	err := NewStatusAction(Confirmed(true), updater).Submit(ctx, 3, models.StatusApproved, "")

	assert.ErrorIs(t, err, boom)
}

func TestStatusAction_Batch(t *testing.T) {
	ctx := context.Background()
	updater := new(MockUpdater)
	want := models.StatusUpdate{Status: models.StatusRejected, Notes: DefaultBatchNotes}
	updater.On("UpdateStatus", ctx, int64(1), want).Return(nil)
	updater.On("UpdateStatus", ctx, int64(2), want).Return(errors.New("gone"))
	updater.On("UpdateStatus", ctx, int64(3), want).Return(nil)

	res, err := NewStatusAction(Confirmed(true), updater).Batch(ctx, []int64{1, 2, 3}, models.StatusRejected, "")

	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []int64{2}, res.Failed)
	assert.Equal(t, "Successfully rejected 2 of 3 items", res.String())
	updater.AssertExpectations(t)
}

func TestBatchResult_AddInvalid(t *testing.T) {
	res := &BatchResult{Status: models.StatusApproved, Succeeded: 2, Total: 2}
	res.AddInvalid("x", "-1")

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, []string{"x", "-1"}, res.Invalid)
	assert.Equal(t, "Successfully approved 2 of 4 items", res.String())
}

func TestStatusAction_Batch_Errors(t *testing.T) {
	a := NewStatusAction(Confirmed(true), new(MockUpdater))
	_, err := a.Batch(context.Background(), nil, models.StatusApproved, "")
	assert.Error(t, err)

	_, err = a.Batch(context.Background(), []int64{1}, "maybe", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = NewStatusAction(Confirmed(false), new(MockUpdater)).Batch(context.Background(), []int64{1}, models.StatusApproved, "")
	assert.ErrorIs(t, err, ErrNotConfirmed)
}

func TestTerminalConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := &TerminalConfirmer{In: strings.NewReader(tt.input), Out: &out}
		got, err := c.Confirm(context.Background(), "Proceed?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Proceed? [y/N]: ", out.String())
	}
}

func TestTerminalConfirmer_AssumeYes(t *testing.T) {
	var out bytes.Buffer
	c := &TerminalConfirmer{In: strings.NewReader(""), Out: &out, AssumeYes: true}
	ok, err := c.Confirm(context.Background(), "Proceed?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, out.String())
}
