// -- internal/humanoid/keyboard.go --
package humanoid

import (
	"math"
	"strings"
	"time"
)

// commonNgrams are typed in a faster rhythm than arbitrary key pairs.
// Spanish pairs are included because search terms are mostly Spanish
// place names.
var commonNgrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true, "en": true, "de": true,
	"la": true, "os": true, "ar": true, "or": true,
	"the": true, "and": true, "ing": true, "ion": true, "tio": true,
	"ent": true, "est": true, "que": true, "ara": true,
}

// ngramFactor scales the delay for text[i] when it completes a common
// trigram (0.55) or digram (0.7).
func ngramFactor(text []rune, i int) float64 {
	if i <= 0 || i >= len(text) {
		return 1.0
	}
	if i >= 2 && commonNgrams[strings.ToLower(string(text[i-2:i+1]))] {
		return 0.55
	}
	if commonNgrams[strings.ToLower(string(text[i-1:i+1]))] {
		return 0.7
	}
	return 1.0
}

// KeyDelay returns the inter-key interval before text[i]. The first key
// of a sequence gets the full mean; n-gram continuations are shorter.
func (h *Humanoid) KeyDelay(text []rune, i int) time.Duration {
	factor := ngramFactor(text, i)
	mean := h.cfg.KeyDelayMeanMs * factor
	minDelay := h.cfg.KeyDelayMinMs * factor

	h.mu.Lock()
	randNorm := h.rng.NormFloat64()
	h.mu.Unlock()

	delay := math.Max(minDelay, randNorm*h.cfg.KeyDelayStdDevMs+mean)
	return time.Duration(delay * float64(time.Millisecond))
}
