package engine

import (
	"context"
	"fmt"

	"github.com/deanbaranes/bpark-server/internal/utils"
)

// Access codes are short enough to type at the gate keypad.
const (
	codeLength   = 6
	codeAttempts = 5
)

// newAccessCode generates a code that is unique among all outstanding
// reservation and active-parking codes. Collisions are rare at this
// code space but checked anyway; after codeAttempts collisions in a
// row the operation fails rather than looping forever.
func (e *Engine) newAccessCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := utils.GenerateCode(codeLength)
		if err != nil {
			return "", err
		}
		inRes, err := e.reservations.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if inRes {
			continue
		}
		inActive, err := e.actives.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if inActive {
			continue
		}
		return code, nil
	}
	return "", fmt.Errorf("access code space exhausted after %d attempts", codeAttempts)
}
