// Package service orchestrates evaluation cycles: it binds the store,
// the snapshot provider and the evaluator together and runs them on a
// timer or on demand, one cycle in flight at a time.
package service

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/fsutil"
	"github.com/scorebox-project/scorebox/pkg/model"
)

const carryoverFileName = "carryover.json"

// LoadCarryover reads the previous cycle's entity set from the state
// dir. Absent file means a fresh start with empty carryover.
func LoadCarryover(stateDir string) (*model.CarryoverState, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, carryoverFileName))
	if os.IsNotExist(err) {
		return &model.CarryoverState{}, nil
	}
	if err != nil {
		return nil, errclass.ErrStorage.WithMessagef("read carryover: %v", err)
	}
	var carry model.CarryoverState
	if err := json.Unmarshal(data, &carry); err != nil {
		return nil, errclass.ErrStorage.WithMessagef("decode carryover: %v", err)
	}
	return &carry, nil
}

// SaveCarryover persists the entity set for the next cycle.
func SaveCarryover(stateDir string, carry *model.CarryoverState) error {
	data, err := json.Marshal(carry)
	if err != nil {
		return errclass.ErrStorage.WithMessagef("encode carryover: %v", err)
	}
	if err := fsutil.AtomicWrite(filepath.Join(stateDir, carryoverFileName), data, 0o644); err != nil {
		return errclass.ErrStorage.WithMessagef("write carryover: %v", err)
	}
	return nil
}
