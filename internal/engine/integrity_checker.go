package engine

import "regexp"

// importStatementRe recognizes ES-module import statements well enough
// to enumerate their bound identifiers for the integrity comparison.
// A full parse is not needed here: the check only compares identifier
// sets, not syntax trees.
var importStatementRe = regexp.MustCompile(`import\s+(?:type\s+)?(\{[^}]*\}|\*\s+as\s+\w+|\w+)(?:\s*,\s*(\{[^}]*\}|\w+))?\s+from\s+['"][^'"]+['"]`)

var identifierRe = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// DefaultCriticalIdentifiers lists the framework-core identifiers whose
// import must never silently disappear across a transform.
func DefaultCriticalIdentifiers() map[string]struct{} {
	names := []string{
		"React", "useState", "useEffect", "useContext", "useRef",
		"useMemo", "useCallback", "useReducer",
		"Component", "PureComponent", "Fragment",
		"createContext", "forwardRef", "memo",
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// IntegrityReport is IntegrityChecker's verdict.
type IntegrityReport struct {
	MustRevert      bool
	LostIdentifiers []string
}

// IntegrityChecker compares import statements pre/post transform and
// flags the removal of any statement binding a critical identifier.
type IntegrityChecker struct {
	critical map[string]struct{}
}

// NewIntegrityChecker builds a checker over critical, defaulting to
// DefaultCriticalIdentifiers when critical is nil.
func NewIntegrityChecker(critical map[string]struct{}) *IntegrityChecker {
	if critical == nil {
		critical = DefaultCriticalIdentifiers()
	}
	return &IntegrityChecker{critical: critical}
}

// importedIdentifiers returns the set of identifiers bound by import
// statements in code.
func (c *IntegrityChecker) importedIdentifiers(code string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, stmt := range importStatementRe.FindAllString(code, -1) {
		for _, id := range identifierRe.FindAllString(stmt, -1) {
			if id == "from" || id == "import" || id == "type" || id == "as" {
				continue
			}
			out[id] = struct{}{}
		}
	}
	return out
}

// Check compares before and after and reports any lost critical import.
func (c *IntegrityChecker) Check(before, after string) IntegrityReport {
	beforeIDs := c.importedIdentifiers(before)
	afterIDs := c.importedIdentifiers(after)

	var lost []string
	for id := range beforeIDs {
		if _, stillPresent := afterIDs[id]; stillPresent {
			continue
		}
		if _, isCritical := c.critical[id]; isCritical {
			lost = append(lost, id)
		}
	}

	return IntegrityReport{MustRevert: len(lost) > 0, LostIdentifiers: lost}
}
