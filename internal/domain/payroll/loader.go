package payroll

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadDir reads every .json file in dir as a Law. Files that cannot be
// read or parsed are logged and skipped. A missing directory is treated as
// an empty law set; any other directory error is fatal to the caller.
// Entries are returned in filename order, which makes duplicate-region
// resolution deterministic.
func LoadDir(dir string) ([]Law, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("tax law directory %s does not exist, starting with no laws", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("read tax law directory %s: %w", dir, err)
	}

	var laws []Law
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("tax law %s skipped: %v", path, err)
			continue
		}
		var law Law
		if err := json.Unmarshal(data, &law); err != nil {
			log.Printf("tax law %s skipped: %v", path, err)
			continue
		}
		laws = append(laws, law)
	}
	return laws, nil
}

// Calculators builds the calculator set for a law set: the federal
// fallback plus one flat-rate calculator per distinct non-federal region.
func Calculators(laws []Law) []Calculator {
	calcs := []Calculator{FederalFlatRate{}}
	seen := map[string]bool{RegionFederal: true}
	for _, law := range laws {
		if seen[law.Region] {
			continue
		}
		seen[law.Region] = true
		calcs = append(calcs, NewRegionalFlatRate(law.Region))
	}
	return calcs
}

// Bootstrap loads the tax law directory and builds both registries.
func Bootstrap(dir string) (*LawRegistry, *CalculatorRegistry, error) {
	laws, err := LoadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	lawReg := NewLawRegistry()
	for _, law := range laws {
		lawReg.Put(law)
	}

	calcReg := NewCalculatorRegistry()
	for _, c := range Calculators(laws) {
		calcReg.Register(c)
	}
	return lawReg, calcReg, nil
}
