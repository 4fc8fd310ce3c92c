// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file. Every node on the network must run
// with the same genesis information or the chains will never agree.
type Genesis struct {
	Date         time.Time `json:"date"`
	ChainID      uint16    `json:"chain_id"`      // An unique id for this running network.
	Difficulty   uint16    `json:"difficulty"`    // Number of leading zero hex characters a block hash must carry.
	MiningReward uint64    `json:"mining_reward"` // Reward credited for mining a block.
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
