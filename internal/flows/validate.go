package flows

import (
	"context"

	"github.com/MrEthical07/yggauth/yggdrasil"
)

// ValidateDeps captures validate flow dependencies.
type ValidateDeps struct {
	Remote Remote
}

// ValidateResult reports whether the remote still accepts the access token.
type ValidateResult struct {
	Failure FailureKind
	Err     error
}

// RunValidate asks the remote whether accessToken is still usable. An empty
// access token fails as invalid without a remote call.
func RunValidate(ctx context.Context, accessToken, clientToken string, deps ValidateDeps) ValidateResult {
	if accessToken == "" {
		return ValidateResult{Failure: FailureInvalidToken, Err: yggdrasil.ErrInvalidToken}
	}
	if err := deps.Remote.Validate(ctx, accessToken, clientToken); err != nil {
		return ValidateResult{Failure: Classify(err), Err: err}
	}
	return ValidateResult{}
}
