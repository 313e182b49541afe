package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/privguard/internal/domain"
)

func TestViewAccess(t *testing.T) {
	const queryValue, setValue = 0x0001, 0x0002

	tests := []struct {
		name   string
		hive   domain.Hive
		access uint32
		want   uint32
	}{
		{"machine read", domain.HiveLocalMachine, queryValue, queryValue | keyWOW64Native},
		{"machine write", domain.HiveLocalMachine, queryValue | setValue, queryValue | setValue | keyWOW64Native},
		{"user read", domain.HiveCurrentUser, queryValue, queryValue},
		{"user write", domain.HiveCurrentUser, queryValue | setValue, queryValue | setValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, viewAccess(tt.hive, tt.access))
		})
	}
}
