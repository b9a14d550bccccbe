package gameerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("buy: %w", New(KindSoldOut, "cafe"))

	assert.Equal(t, KindSoldOut, KindOf(err))
	assert.True(t, Is(err, KindSoldOut))
	assert.False(t, Is(err, KindAlreadyPurchased))
	assert.False(t, Is(nil, KindUnknown))
	assert.Equal(t, KindUnknown, KindOf(errors.New("disk on fire")))
}

func TestInsufficientFundsMetadata(t *testing.T) {
	err := InsufficientFunds(7, 3)

	md := MetadataOf(err)
	require.NotNil(t, md)
	assert.Equal(t, "7", md["required"])
	assert.Equal(t, "3", md["available"])
	assert.Contains(t, err.Error(), "need 7 coins, have 3")
}

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{nil, codes.OK},
		{New(KindAlreadyPurchased, ""), codes.Aborted},
		{New(KindRoomNotFound, ""), codes.NotFound},
		{New(KindWrongPhase, ""), codes.FailedPrecondition},
		{New(KindInvalidDiceCount, ""), codes.InvalidArgument},
		{New(KindNotCurrentPlayer, ""), codes.PermissionDenied},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, Status(tc.err).Code(), "err=%v", tc.err)
	}
}

func TestErrorStringWithoutMessage(t *testing.T) {
	assert.Equal(t, "NO_ROLL_TO_RESOLVE", New(KindNoRollToResolve, "").Error())
}
