package model

import (
	"encoding/csv"
	"os"
	"sort"

	"github.com/rotisserie/eris"
)

// Lookup maps LSOA codes to the local authority they belong to. Entries are
// validated as they are added: an LSOA appears once, and LA code and name
// map one-to-one.
type Lookup struct {
	lsoas      []string
	las        map[string]Identity
	codeToName map[string]string
	nameToCode map[string]string
}

// NewLookup returns an empty lookup.
func NewLookup() *Lookup {
	return &Lookup{
		las:        make(map[string]Identity),
		codeToName: make(map[string]string),
		nameToCode: make(map[string]string),
	}
}

// Add records that an LSOA belongs to a local authority.
func (l *Lookup) Add(lsoaCode string, la Identity) error {
	if _, ok := l.las[lsoaCode]; ok {
		return eris.Wrapf(ErrSchema, "model: duplicate LSOA %s in lookup", lsoaCode)
	}
	if name, ok := l.codeToName[la.Code]; ok && name != la.Name {
		return eris.Wrapf(ErrSchema, "model: LA code %s maps to both %s and %s", la.Code, name, la.Name)
	}
	if code, ok := l.nameToCode[la.Name]; ok && code != la.Code {
		return eris.Wrapf(ErrSchema, "model: LA name %s maps to both %s and %s", la.Name, code, la.Code)
	}
	l.lsoas = append(l.lsoas, lsoaCode)
	l.las[lsoaCode] = la
	l.codeToName[la.Code] = la.Name
	l.nameToCode[la.Name] = la.Code
	return nil
}

// LA reports the local authority an LSOA belongs to.
func (l *Lookup) LA(lsoaCode string) (Identity, bool) {
	la, ok := l.las[lsoaCode]
	return la, ok
}

// Len reports the number of LSOA entries.
func (l *Lookup) Len() int { return len(l.lsoas) }

// HasLA reports whether any LSOA maps to the named local authority.
func (l *Lookup) HasLA(laName string) bool {
	_, ok := l.nameToCode[laName]
	return ok
}

// RemoveLA drops every LSOA belonging to the named local authority and
// reports whether any entry was removed.
func (l *Lookup) RemoveLA(laName string) bool {
	code, ok := l.nameToCode[laName]
	if !ok {
		return false
	}
	kept := l.lsoas[:0]
	for _, lsoa := range l.lsoas {
		if l.las[lsoa].Name == laName {
			delete(l.las, lsoa)
			continue
		}
		kept = append(kept, lsoa)
	}
	l.lsoas = kept
	delete(l.codeToName, code)
	delete(l.nameToCode, laName)
	return true
}

// Identities returns the distinct local authorities, sorted by code.
func (l *Lookup) Identities() []Identity {
	seen := make(map[string]bool, len(l.codeToName))
	ids := make([]Identity, 0, len(l.codeToName))
	for _, lsoa := range l.lsoas {
		la := l.las[lsoa]
		if !seen[la.Code] {
			seen[la.Code] = true
			ids = append(ids, la)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Code < ids[j].Code })
	return ids
}

// WriteCSV writes the lookup with columns lsoaColumn, keys.Code, keys.Name.
func (l *Lookup) WriteCSV(path, lsoaColumn string, keys KeyColumns) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "model: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{lsoaColumn, keys.Code, keys.Name}); err != nil {
		return eris.Wrapf(err, "model: write header to %s", path)
	}
	for _, lsoa := range l.lsoas {
		la := l.las[lsoa]
		if err := w.Write([]string{lsoa, la.Code, la.Name}); err != nil {
			return eris.Wrapf(err, "model: write row to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "model: flush %s", path)
	}
	return nil
}

// ReadLookupCSV loads and validates an LSOA-to-LA lookup file.
func ReadLookupCSV(path, lsoaColumn string, keys KeyColumns) (*Lookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "model: parse %s", path)
	}
	if len(records) < 1 {
		return nil, eris.Wrapf(ErrSchema, "model: %s is empty", path)
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}
	for _, col := range []string{lsoaColumn, keys.Code, keys.Name} {
		if _, ok := idx[col]; !ok {
			return nil, eris.Wrapf(ErrSchema, "model: %s missing column %s", path, col)
		}
	}

	lookup := NewLookup()
	for _, row := range records[1:] {
		la := Identity{Code: row[idx[keys.Code]], Name: row[idx[keys.Name]]}
		if err := lookup.Add(row[idx[lsoaColumn]], la); err != nil {
			return nil, err
		}
	}
	return lookup, nil
}
