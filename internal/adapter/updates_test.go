package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
)

func TestUpdatePolicy_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		apply func(u *UpdatePolicy) error
		want  domain.UpdatePolicyStatus
		label string
	}{
		{
			name:  "disable",
			apply: (*UpdatePolicy).DisableAutoUpdates,
			want:  domain.UpdatePolicyStatus{Configured: true, NoAutoUpdate: true},
			label: "Automatic updates disabled",
		},
		{
			name:  "notify only",
			apply: (*UpdatePolicy).SetNotifyOnly,
			want:  domain.UpdatePolicyStatus{Configured: true, AUOptions: catalog.AUNotifyBeforeDownload},
			label: "Notify before download",
		},
		{
			name: "disable then restore",
			apply: func(u *UpdatePolicy) error {
				if err := u.DisableAutoUpdates(); err != nil {
					return err
				}
				return u.RestoreDefaults()
			},
			want:  domain.UpdatePolicyStatus{Configured: true},
			label: "Windows default",
		},
		{
			name: "notify only after disable",
			apply: func(u *UpdatePolicy) error {
				if err := u.DisableAutoUpdates(); err != nil {
					return err
				}
				return u.SetNotifyOnly()
			},
			want:  domain.UpdatePolicyStatus{Configured: true, AUOptions: catalog.AUNotifyBeforeDownload},
			label: "Notify before download",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			u := NewUpdatePolicy(store, zap.NewNop())

			require.NoError(t, tt.apply(u))

			st, err := u.Status()
			require.NoError(t, err)
			assert.Equal(t, tt.want, st)
			assert.Equal(t, tt.label, DescribeUpdatePolicy(st))
		})
	}
}

func TestUpdatePolicy_UnconfiguredHost(t *testing.T) {
	u := NewUpdatePolicy(newMemStore(), zap.NewNop())

	st, err := u.Status()
	require.NoError(t, err)
	assert.False(t, st.Configured)
	assert.Equal(t, "Windows default (no policy)", DescribeUpdatePolicy(st))

	// Nothing to delete is still success
	assert.NoError(t, u.RestoreDefaults())
}

func TestUpdatePolicy_RestoreKeepsOtherValues(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.SetDWORD(domain.HiveLocalMachine, catalog.UpdatePolicyPath, "ScheduledInstallDay", 3))
	u := NewUpdatePolicy(store, zap.NewNop())
	require.NoError(t, u.SetNotifyOnly())

	require.NoError(t, u.RestoreDefaults())

	names, err := store.ValueNames(domain.HiveLocalMachine, catalog.UpdatePolicyPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"ScheduledInstallDay"}, names)
}

func TestUpdatePolicy_PermissionDenied(t *testing.T) {
	store := newMemStore()
	store.fail(domain.HiveLocalMachine, catalog.UpdatePolicyPath,
		domain.NewOpError("write value", "", domain.ErrPermissionDenied, "", nil))
	u := NewUpdatePolicy(store, zap.NewNop())

	assert.ErrorIs(t, u.DisableAutoUpdates(), domain.ErrPermissionDenied)
	assert.ErrorIs(t, u.SetNotifyOnly(), domain.ErrPermissionDenied)

	_, err := u.Status()
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestDescribeUpdatePolicy_UnknownOption(t *testing.T) {
	st := domain.UpdatePolicyStatus{Configured: true, AUOptions: 9}
	assert.Equal(t, "Unknown option", DescribeUpdatePolicy(st))

	st.AUOptions = catalog.AUAutoDownloadSchedule
	assert.Equal(t, "Download automatically, install on schedule", DescribeUpdatePolicy(st))
}
