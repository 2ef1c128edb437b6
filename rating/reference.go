package rating

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type Config struct {
	AmericanaTable string // path to the americana category prefix tables
	MexicanaTable  string // path to the mexicana category prefix tables
}

// ReferenceTables holds the shared category prefix datasets, one per trunk
// class. Loaded once at process start and shared read-only across all
// customers and runs.
type ReferenceTables struct {
	tables map[TrunkClass]map[CallType]map[string]string
}

var defaultTables *ReferenceTables

// Init loads the process-wide reference tables from the configured TOML
// files.
func Init(c *Config) error {
	rt, err := LoadReferenceTables(c)
	if err != nil {
		return err
	}
	defaultTables = rt
	return nil
}

func Tables() *ReferenceTables {
	return defaultTables
}

func LoadReferenceTables(c *Config) (*ReferenceTables, error) {
	rt := &ReferenceTables{tables: make(map[TrunkClass]map[CallType]map[string]string)}

	for class, path := range map[TrunkClass]string{
		TrunkAmericana: c.AmericanaTable,
		TrunkMexicana:  c.MexicanaTable,
	} {
		var raw map[string]map[string]string
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return nil, errors.Wrapf(err, "reference table %s", path)
		}
		tables, err := buildClassTables(class, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "reference table %s", path)
		}
		rt.tables[class] = tables
	}

	return rt, nil
}

// ParseReferenceTable builds one class dataset from already-decoded TOML
// data. Split out from LoadReferenceTables so tests can feed tables inline.
func ParseReferenceTable(class TrunkClass, raw map[string]map[string]string) (*ReferenceTables, error) {
	tables, err := buildClassTables(class, raw)
	if err != nil {
		return nil, err
	}
	return &ReferenceTables{tables: map[TrunkClass]map[CallType]map[string]string{class: tables}}, nil
}

func buildClassTables(class TrunkClass, raw map[string]map[string]string) (map[CallType]map[string]string, error) {
	tables := make(map[CallType]map[string]string, len(raw))
	for name, prefixes := range raw {
		ct := CallType(name)
		if !class.HasCallType(ct) {
			return nil, errors.Errorf("call type %q is not valid for trunk class %q", name, class)
		}
		table := make(map[string]string, len(prefixes))
		for prefix, label := range prefixes {
			table[prefix] = label
		}
		tables[ct] = table
	}
	return tables, nil
}

// Category returns the prefix table for one category, nil when the class
// carries no data for it.
func (rt *ReferenceTables) Category(class TrunkClass, ct CallType) map[string]string {
	if rt == nil {
		return nil
	}
	return rt.tables[class][ct]
}

// Categories returns all category tables of a class keyed by call type.
func (rt *ReferenceTables) Categories(class TrunkClass) map[CallType]map[string]string {
	if rt == nil {
		return nil
	}
	return rt.tables[class]
}
