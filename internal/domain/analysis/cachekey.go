package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

// cacheKey hashes everything the engine output depends on.
func cacheKey(batch nutrition.BatchRequest) string {
	payload, err := json.Marshal(struct {
		Version string                 `json:"v"`
		Batch   nutrition.BatchRequest `json:"batch"`
	}{Version: nutrition.AlgorithmVersion, Batch: batch})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
