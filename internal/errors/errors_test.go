package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsInnerCode(t *testing.T) {
	inner := CapabilityNotFound("computation", "getRepoGrowth")
	wrapped := Wrap(inner, "measurement repo_growth")

	assert.Equal(t, CodeCapabilityNotFound, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "measurement repo_growth")
	assert.Contains(t, wrapped.Error(), `computation "getRepoGrowth" is not provided`)
}

func TestWrap_KeepsOutermostCode(t *testing.T) {
	inner := CapabilityNotFound("computation", "getRepoGrowth")
	outer := WithCode(CodeComputationFailure, fmt.Errorf("batch: %w", inner))
	wrapped := Wrap(outer, "measurement repo_growth")

	assert.Equal(t, CodeComputationFailure, GetCode(wrapped))
	assert.True(t, HasCode(wrapped, CodeCapabilityNotFound))
}

func TestWrap_PlainErrorIsInternal(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("boom"), "context")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestHasCode_WalksChain(t *testing.T) {
	root := ComputationFailure("metric rmse", stderrors.New("length mismatch"))
	chained := fmt.Errorf("batch: %w", Wrap(root, "measurement repo_growth"))

	assert.True(t, HasCode(chained, CodeComputationFailure))
	assert.False(t, HasCode(chained, CodeNotFound))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestIsConfiguration(t *testing.T) {
	assert.True(t, IsConfiguration(NotFound(`measurement "nope"`)))
	assert.True(t, IsConfiguration(ConfigInvalid("duplicate id")))
	assert.False(t, IsConfiguration(CapabilityNotFound("metric", "x")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, stderrors.New("bad row"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.True(t, IsAppError(err))
}
