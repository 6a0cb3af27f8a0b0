package job

import (
	"fmt"

	"github.com/filepump/pump/internal/token"
)

// buildSource constructs the token source for cfg.Mode, seeded per
// worker so multi-writer and pipeline backends draw independently. dict
// and markov are pre-materialized once by the caller and shared
// read-only across workers.
func buildSource(cfg Config, dict *token.Dictionary, markov *token.MarkovModel, workerIndex int) (token.Source, error) {
	seed := cfg.Seed
	hasSeed := cfg.HasSeed
	if hasSeed {
		seed = token.WorkerSeed(cfg.Seed, workerIndex)
	}

	switch cfg.Mode {
	case token.ModeWord:
		return token.NewWord(cfg.Word, cfg.Encoding, cfg.NewlineScope, cfg.NewlineStyle), nil
	case token.ModeDict:
		return token.NewDict(dict, cfg.DictOrder, cfg.Encoding, cfg.NewlineScope, cfg.NewlineStyle, seed, hasSeed)
	case token.ModeMarkov:
		return token.NewMarkov(markov, cfg.Encoding, cfg.NewlineScope, cfg.NewlineStyle, seed, hasSeed), nil
	case token.ModeBin0:
		return token.NewFill(0x00), nil
	case token.ModeBin1:
		return token.NewFill(0xFF), nil
	case token.ModeRandBin:
		return token.NewRandBin(), nil
	case token.ModeRandUTF8:
		return token.NewRandUTF8(), nil
	case token.ModeRandHex:
		return token.NewRandHex(), nil
	case token.ModeRandom:
		return token.NewRandomMixed(), nil
	default:
		return nil, fmt.Errorf("job: unknown pump mode %d", cfg.Mode)
	}
}

// loadDictAndMarkov preloads the dictionary and, for markov mode,
// builds the model once before any worker starts.
func loadDictAndMarkov(cfg Config) (*token.Dictionary, *token.MarkovModel, error) {
	if cfg.Mode != token.ModeDict && cfg.Mode != token.ModeMarkov {
		return nil, nil, nil
	}
	dict, err := token.LoadDictionary(cfg.DictPaths...)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Mode != token.ModeMarkov {
		return dict, nil, nil
	}
	model, err := token.BuildMarkov(dict, cfg.MarkovN)
	if err != nil {
		return nil, nil, err
	}
	return dict, model, nil
}
