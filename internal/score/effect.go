package score

import (
	"fmt"

	"github.com/ppiankov/claimrank/internal/model"
)

// Effect multipliers applied to a claim's confidence-weighted influence
const (
	MultiplierSupports = 1.0
	MultiplierWeakens  = -0.7
	MultiplierBlocks   = -2.0
)

// Multiplier maps an effect to its numeric multiplier.
// It panics on an unknown effect: callers must only pass values from the
// closed effect set (loaders validate with model.Effect.Valid).
func Multiplier(e model.Effect) float64 {
	switch e {
	case model.EffectSupports:
		return MultiplierSupports
	case model.EffectWeakens:
		return MultiplierWeakens
	case model.EffectBlocks:
		return MultiplierBlocks
	default:
		panic(fmt.Sprintf("score: unknown effect %q", string(e)))
	}
}
